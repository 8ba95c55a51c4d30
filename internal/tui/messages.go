package tui

import "github.com/jimdaga/nextrend/internal/generation"

type slotUpdateMsg struct {
	batch  *generation.Batch
	update generation.Update
}

type batchDoneMsg struct {
	batch *generation.Batch
	err   error
}

type revealTickMsg struct {
	index int
	seq   int
}

type errMsg struct {
	err error
}
