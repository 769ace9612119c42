package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"
)

// runPipeline reads frames at the camera rate until stopCh closes.
// Each frame is stamped, run through the detector and handed to the local
// session. Classification throttling happens in the session, so the loop
// itself never waits on the network.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.config.Camera.ReadFrame()
			if err != nil {
				a.logger.Debug("error reading frame", "error", err)
				continue
			}
			a.processFrame(ctx, frame, now)
			frame.Close()
		}
	}
}

// processFrame detects hands in frame and feeds them to the local session.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat, now time.Time) {
	a.storeFrame(frame)

	hands, err := a.config.Detector.Detect(frame, a.clock.Stamp(now))
	if err != nil {
		a.logger.Warn("error detecting hands", "error", err)
		return
	}

	a.landmarkMu.RLock()
	observers := a.landmarkObservers
	a.landmarkMu.RUnlock()
	for _, obs := range observers {
		obs.LandmarksDetected(a.session.ID(), hands)
	}

	a.session.HandleDetection(ctx, hands, now)
}

func (a *App) storeFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.frameMu.Lock()
	a.latestFrame = data
	a.frameMu.Unlock()
}
