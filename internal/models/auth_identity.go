package models

import (
	"time"

	"github.com/jimdaga/nextrend/internal/crypto"
	"gorm.io/gorm"
)

var encryptor *crypto.TokenEncryptor

// InitEncryption initializes the token encryptor for the models package.
// Must be called before any database operations involving AuthIdentity.
func InitEncryption(encryptionKey string) error {
	var err error
	encryptor, err = crypto.NewTokenEncryptor(encryptionKey)
	return err
}

// AuthIdentity stores the OAuth identity used to sign a user in. Tokens are
// sealed at rest when encryption is initialized.
type AuthIdentity struct {
	gorm.Model
	UserID         uint   `gorm:"not null;index"`
	User           User   `gorm:"constraint:OnDelete:CASCADE;"`
	Provider       string `gorm:"not null"` // e.g., "google"
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user,where:deleted_at IS NULL"`
	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	TokenExpiry    *time.Time
}

// BeforeSave seals both tokens.
func (a *AuthIdentity) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}
	return a.transformTokens(encryptor.Encrypt)
}

// AfterFind opens both tokens.
func (a *AuthIdentity) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}
	return a.transformTokens(encryptor.Decrypt)
}

func (a *AuthIdentity) transformTokens(fn func(string) (string, error)) error {
	for _, tok := range []*string{&a.AccessToken, &a.RefreshToken} {
		if *tok == "" {
			continue
		}
		out, err := fn(*tok)
		if err != nil {
			return err
		}
		*tok = out
	}
	return nil
}
