package ads1256

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Channel is an analog input of the ADS1256.
type Channel int

//goland:noinspection GoSnakeCaseUsage
const (
	CH_AIN0 Channel = iota
	CH_AIN1
	CH_AIN2
	CH_AIN3
	CH_AIN4
	CH_AIN5
	CH_AIN6
	CH_AIN7
	CH_AINCOM
)

func (c Channel) valid() bool {
	return c >= CH_AIN0 && c <= CH_AINCOM
}

// Positive returns the MUX code selecting c as the positive input.
func (c Channel) Positive() byte {
	return byte(c&0x0F) << 4
}

// Negative returns the MUX code selecting c as the negative input.
func (c Channel) Negative() byte {
	return byte(c & 0x0F)
}

func (c Channel) String() string {
	switch {
	case c == CH_AINCOM:
		return "AINCOM"
	case c.valid():
		return fmt.Sprintf("AIN%d", int(c))
	default:
		return "(invalid channel)"
	}
}

// ChannelPair is a simple struct that holds positive/negative channel identifiers.
type ChannelPair struct {
	Pos Channel
	Neg Channel
}

// SingleEnded pairs ch with AINCOM.
func SingleEnded(ch Channel) ChannelPair {
	return ChannelPair{Pos: ch, Neg: CH_AINCOM}
}

// Differential pairs pos with neg.
func Differential(pos, neg Channel) ChannelPair {
	return ChannelPair{Pos: pos, Neg: neg}
}

// Mux returns the MUX register value for the pair.
func (p ChannelPair) Mux() byte {
	return p.Pos.Positive() | p.Neg.Negative()
}

func (p ChannelPair) String() string {
	return p.Pos.String() + "-" + p.Neg.String()
}

// SetChannelPair routes pair to the converter, see SetInputChannels.
func (adc *ADS1256) SetChannelPair(pair ChannelPair) error {
	if !pair.Pos.valid() || !pair.Neg.valid() {
		return fmt.Errorf("%w: channel pair %d/%d", ErrInvalidArgument, int(pair.Pos), int(pair.Neg))
	}
	return adc.SetInputChannels(pair.Pos.Positive(), pair.Neg.Negative())
}

// DataCallback receives every sample of a [ChannelScan].
type DataCallback func(chPair ChannelPair, code int32, volts float64)

// maxScanErrors stops a scan that keeps failing.
const maxScanErrors = 50

// ChannelScan is a running [ADS1256.ScanChannels].
type ChannelScan struct {
	Interval time.Duration
	pairs    []ChannelPair
	callback DataCallback
	cancel   context.CancelFunc
	finished chan struct{}
	running  atomic.Bool

	errMu sync.Mutex
	err   []error
}

func (cs *ChannelScan) addErr(err error) {
	if err == nil {
		return
	}
	cs.errMu.Lock()
	cs.err = append(cs.err, err)
	tooMany := len(cs.err) >= maxScanErrors
	cs.errMu.Unlock()
	if tooMany {
		cs.cancel()
	}
}

// Err returns every error seen so far, joined.
func (cs *ChannelScan) Err() error {
	cs.errMu.Lock()
	defer cs.errMu.Unlock()
	if len(cs.err) == 0 {
		return nil
	}
	return fmt.Errorf("channel scan errors: %w", errors.Join(cs.err...))
}

// Stop ends the scan after the sample in progress.
func (cs *ChannelScan) Stop() {
	cs.cancel()
}

// IsDone reports whether the scan goroutine has returned.
func (cs *ChannelScan) IsDone() bool {
	return !cs.running.Load()
}

// Wait blocks until the scan has ended or ctx is done, and returns Err.
func (cs *ChannelScan) Wait(ctx context.Context) error {
	select {
	case <-cs.finished:
		return cs.Err()
	case <-ctx.Done():
		return errors.Join(ctx.Err(), cs.Err())
	}
}

func (adc *ADS1256) scanChannelPairs(ctx context.Context, cs *ChannelScan) {
	for _, chPair := range cs.pairs {
		if ctx.Err() != nil {
			return
		}

		code, err := adc.readChannelRawContext(ctx, chPair)
		if err != nil {
			if ctx.Err() == nil {
				cs.addErr(err)
			}
			continue
		}

		cs.callback(chPair, code, float64(code)*adc.scale)
	}
}

// ScanChannels cycles through pairs in a new goroutine until ctx is done or
// Stop is called, sleeping interval between rounds. Each pair is selected,
// synchronised and read with ReadChannel semantics and handed to onData.
//
// The scan uses the ADS1256 without locking; do not call other methods on it
// until the scan has ended.
func (adc *ADS1256) ScanChannels(
	ctx context.Context,
	interval time.Duration,
	onData DataCallback,
	pairs ...ChannelPair,
) (*ChannelScan, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no channels to scan", ErrInvalidArgument)
	}
	if onData == nil {
		return nil, fmt.Errorf("%w: nil data callback", ErrInvalidArgument)
	}
	for _, p := range pairs {
		if !p.Pos.valid() || !p.Neg.valid() {
			return nil, fmt.Errorf("%w: channel pair %d/%d", ErrInvalidArgument, int(p.Pos), int(p.Neg))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	cs := &ChannelScan{
		Interval: interval,
		pairs:    append([]ChannelPair(nil), pairs...),
		callback: onData,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	cs.running.Store(true)

	go func() {
		defer func() {
			cs.running.Store(false)
			close(cs.finished)
		}()
		defer cancel()

		var tick <-chan time.Time
		if interval > 0 {
			t := time.NewTicker(interval)
			defer t.Stop()
			tick = t.C
		}
		for {
			adc.scanChannelPairs(ctx, cs)
			if tick == nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}
	}()

	return cs, nil
}

func (adc *ADS1256) readChannelRawContext(ctx context.Context, pair ChannelPair) (int32, error) {
	if err := adc.SetChannelPair(pair); err != nil {
		return 0, err
	}
	if err := adc.Sync(); err != nil {
		return 0, err
	}
	if err := adc.WaitUntilReadyContext(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", pair, err)
	}
	code, err := adc.readDataByCommand()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", pair, err)
	}
	return code, nil
}
