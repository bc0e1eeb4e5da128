package main

import (
	"context"
	"fmt"
	"log"

	"vista-ocr/backend"
	"vista-ocr/capture"
	"vista-ocr/clipboard"
	"vista-ocr/config"
	"vista-ocr/coordinator"
	"vista-ocr/gemini"
	"vista-ocr/hotkey"
	"vista-ocr/localocr"
	"vista-ocr/logutil"
	"vista-ocr/runonce"
	"vista-ocr/tray"
)

// runAgent starts the resident instance: tray icon, global hotkey,
// config hot reload and the loopback endpoint for delegated captures.
// Blocks until the tray quits or ctx is cancelled.
func runAgent(ctx context.Context) error {
	store, err := config.NewStore(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	snap := store.Snapshot()
	logutil.Setup(snap.EnableFileLogging)
	log.Printf("vista: starting resident agent (api key %s)", logutil.RedactKey(snap.APIKey))

	// Owning the loopback port is the single-instance lock.
	srv := runonce.NewServer()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("another instance appears to be running: %w", err)
	}
	defer srv.Close()

	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}

	cloud := gemini.New(snap.APIKey)
	local := localocr.New()
	local.ApplySettings(snap.LocalSettings())
	selector := backend.NewSelector(cloud, local)
	if err := selector.SetBackend(snap.Backend); err != nil {
		return err
	}

	trayUI := tray.New()
	coord := coordinator.New(store, selector, capture.NewInteractive(), capture.AlwaysGranted(), trayUI, clipboard.System{})
	defer coord.Close()

	chord, err := hotkey.Parse(snap.Hotkey)
	if err != nil {
		return fmt.Errorf("invalid hotkey %q: %w", snap.Hotkey, err)
	}
	listener := hotkey.NewListener(chord, func() {
		go coord.InitiateCapture()
	})
	if err := listener.Start(); err != nil {
		// Degraded but usable: capture stays reachable from the tray.
		log.Printf("vista: global hotkey unavailable: %v", err)
	} else {
		defer listener.Stop()
	}

	store.OnChange(func(snap config.Snapshot) {
		logutil.Setup(snap.EnableFileLogging)
		cloud.SetAPIKey(snap.APIKey)
		if err := selector.SetBackend(snap.Backend); err != nil {
			log.Printf("vista: config reload: %v", err)
		}
		selector.UpdateLocalSettings(snap.LocalSettings())
		if chord, err := hotkey.Parse(snap.Hotkey); err == nil {
			listener.Rebind(chord)
		} else {
			log.Printf("vista: config reload: %v", err)
		}
	})
	store.Watch()

	go serveDelegations(ctx, srv, coord)
	go func() {
		<-ctx.Done()
		trayUI.Quit()
	}()

	trayUI.Run(coord.InitiateCapture, func() {
		log.Printf("vista: shutting down")
	})
	return nil
}

// serveDelegations answers run-once clients. Each request runs a full
// interactive capture; overlapping requests are rejected by the
// coordinator's single-flight guard.
func serveDelegations(ctx context.Context, srv *runonce.Server, coord *coordinator.Coordinator) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		go func(conn *runonce.Conn) {
			defer conn.Close()
			req := conn.Request()
			done := make(chan struct{})
			coord.InitiateCaptureDelegated(func(text string, err error) {
				if err != nil {
					_ = conn.RespondError(err.Error())
				} else {
					_ = conn.RespondSuccess(text)
				}
				close(done)
			}, req.OutputToStdout)
			<-done
		}(conn)
	}
}
