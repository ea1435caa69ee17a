package service

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eoslike/tgcraid/internal/tgc"
	"github.com/sirupsen/logrus"
)

// StartTapeGc wires a MultiSpaceGc for the given spaces against a fake
// namespace, feeding it synthetic fileOpened traffic until it is
// interrupted by SIGINT/SIGTERM or nbEvents events have been delivered.
// It is demo/CLI wiring, not part of either the RAID or tape-gc core.
func StartTapeGc(spaces []string, nbEvents int) {
	if nbEvents <= 0 {
		logrus.Warnf("Invalid nbEvents value '%d' from CLI. Defaulting to 20 events.", nbEvents)
		nbEvents = 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logrus.Infof("Received signal: %s. Initiating graceful shutdown...", sig)
		cancel()
	}()

	mgm := buildDemoMgm(spaces)
	gc := tgc.NewMultiSpaceGc(mgm, tgc.RealClock{}, logrus.WithField("component", "tgc"))

	if err := gc.SetTapeEnabled(spaces); err != nil {
		logrus.Errorf("failed to enable tape gc: %v", err)
		return
	}
	defer gc.Stop()

	runDone := make(chan struct{})
	go func() {
		runDemoTraffic(ctx, gc, spaces, nbEvents)
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		logrus.Infof("Tape gc demo was interrupted, shutting down.")
	case <-runDone:
		logrus.Infof("Tape gc demo finished delivering %d events, shutting down.", nbEvents)
	}
}

func buildDemoMgm(spaces []string) *tgc.FakeMgm {
	mgm := tgc.NewFakeMgm()
	for _, space := range spaces {
		mgm.SpaceConfigs[space] = tgc.SpaceConfig{
			QueryPeriodSecs: 5,
			AvailBytes:      1_000_000,
			TotalBytes:      10_000_000,
		}
		mgm.SpaceStats[space] = tgc.SpaceStats{
			TotalBytes: 10_000_000,
			AvailBytes: 100_000,
		}
	}
	return mgm
}

func runDemoTraffic(ctx context.Context, gc *tgc.MultiSpaceGc, spaces []string, nbEvents int) {
	for i := 0; i < nbEvents; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		space := spaces[i%len(spaces)]
		fid := tgc.FileId(rand.Intn(1000) + 1)
		gc.FileOpened(space, fid)

		time.Sleep(50 * time.Millisecond)
	}
}
