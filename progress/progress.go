// Package progress folds the progress of several unevenly sized download
// steps into one scalar.
//
// Every step gets PerStep units regardless of how many bytes or items it
// covers, so the overall range is [0, FullScale()].
//
//	r.ProgressUpdate(progress.Max())
//	r.ProgressUpdate(progress.ForStep(progress.StepDownloadMods, done, total))
//	r.ProgressUpdate(progress.Label("Downloading recommended mod %s", name))
package progress

import "fmt"

// Step is one of the fixed ordered download phases.
type Step int

const (
	StepDownloadMods Step = iota
	StepDownloadClientJar
	StepDownloadLibraries
	StepDownloadAssets
)

const (
	// StepCount is the number of phases.
	StepCount = 4

	// PerStep is the number of units each phase spans.
	PerStep uint64 = 1024

	// PerItem is the number of units one item spans within ItemsMax.
	PerItem uint64 = 100
)

var stepNames = [StepCount]string{
	"download mods",
	"download client jar",
	"download libraries",
	"download assets",
}

func (s Step) String() string {
	if s < 0 || int(s) >= StepCount {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// NormalizeStep maps p in [0, max] within step to the overall scale.
func NormalizeStep(step Step, p, max uint64) uint64 {
	if max < 1 {
		max = 1
	}
	if p > max {
		p = max
	}
	return uint64(step)*PerStep + p*PerStep/max
}

// ItemProgress scales the byte progress of item idx to the item scale.
// Bytes past total are ignored and an unknown total counts as no
// progress, so an item never leaves its own PerItem share.
func ItemProgress(idx int, done, total int64) uint64 {
	var frac uint64
	if total > 0 {
		if done > total {
			done = total
		}
		if done > 0 {
			frac = uint64(done) * PerItem / uint64(total)
		}
	}
	return uint64(idx)*PerItem + frac
}

// ItemsMax returns the item scale maximum for n items.
func ItemsMax(n int) uint64 {
	return uint64(n) * PerItem
}

// FullScale returns the maximum overall progress.
func FullScale() uint64 {
	return StepCount * PerStep
}

// Update is one of SetMax, SetProgress or SetLabel.
type Update interface {
	isUpdate()
}

type (
	SetMax      uint64
	SetProgress uint64
	SetLabel    string
)

func (SetMax) isUpdate()      {}
func (SetProgress) isUpdate() {}
func (SetLabel) isUpdate()    {}

// Max sets the overall maximum to FullScale.
func Max() Update {
	return SetMax(FullScale())
}

// ForStep reports progress p of max within step.
func ForStep(step Step, p, max uint64) Update {
	return SetProgress(NormalizeStep(step, p, max))
}

// ToMax marks completion.
func ToMax() Update {
	return SetProgress(FullScale())
}

func Label(format string, args ...interface{}) Update {
	return SetLabel(fmt.Sprintf(format, args...))
}

// Receiver consumes updates. Implementations are called synchronously
// from download loops and must not block.
type Receiver interface {
	ProgressUpdate(u Update)
}

type ReceiverFunc func(Update)

func (f ReceiverFunc) ProgressUpdate(u Update) {
	f(u)
}

// Discard drops all updates.
var Discard Receiver = ReceiverFunc(func(Update) {})
