package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/frenesis/frenesis/internal/domain"
)

// ErrSimulatedFailure is returned when the synthetic fetcher fails on purpose
var ErrSimulatedFailure = errors.New("simulated network error")

const (
	syntheticInitialSpeed = "1.5 MB/s"
	syntheticInitialETA   = 45
	syntheticChangeChance = 0.3
)

// SyntheticFetcher simulates a transfer by advancing a random amount every
// step. It never touches the network.
type SyntheticFetcher struct {
	interval    time.Duration
	failureRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSyntheticFetcher creates a synthetic fetcher stepping every interval.
// failureRate is the chance in [0,1] that a fetch fails part way.
func NewSyntheticFetcher(interval time.Duration, failureRate float64, rnd *rand.Rand) *SyntheticFetcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SyntheticFetcher{
		interval:    interval,
		failureRate: failureRate,
		rnd:         rnd,
	}
}

// Fetch advances progress by a random increment in (0, 10] per step until
// it reaches 100. Speed and ETA change now and then.
func (f *SyntheticFetcher) Fetch(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) (*domain.FileHandle, error) {
	if onProgress == nil {
		onProgress = func(domain.FetchProgress) {}
	}

	failAt := -1.0
	if f.failureRate > 0 && f.float() < f.failureRate {
		failAt = f.float() * 100
	}

	progress := 0.0
	speed := syntheticInitialSpeed
	eta := syntheticInitialETA

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		progress += f.increment()
		if failAt >= 0 && progress >= failAt {
			return nil, fmt.Errorf("%w at %d%%", ErrSimulatedFailure, int(failAt))
		}

		if progress >= 100 {
			onProgress(domain.FetchProgress{Percent: 100, Speed: speed, ETASeconds: 0})
			return &domain.FileHandle{}, nil
		}

		onProgress(domain.FetchProgress{Percent: progress, Speed: speed, ETASeconds: eta})

		if f.float() < syntheticChangeChance {
			speed = fmt.Sprintf("%.1f MB/s", f.float()*2+0.5)
			eta = 15 + int(f.float()*30)
		}
	}
}

// increment returns a value in (0, 10]
func (f *SyntheticFetcher) increment() float64 {
	return 10 - f.float()*10
}

func (f *SyntheticFetcher) float() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rnd.Float64()
}
