package main

import (
	"bufio"
	"flag"
	"log/slog"
	"os"

	"supplyhub/internal/chatclient"
	"supplyhub/internal/lib/sl"
)

func main() {
	verbose := flag.Bool("v", false, "debug logging to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := chatclient.LoadConfig()
	if err != nil {
		log.Error("cannot read environment", sl.Err(err))
		os.Exit(1)
	}

	session := chatclient.NewSession()
	transport := chatclient.NewAdapter(cfg.ApiURL, cfg.WsURL, log)
	render := chatclient.NewRenderer(os.Stdout)
	dispatcher := chatclient.NewDispatcher(session, transport, render, log)
	reconciler := chatclient.NewReconciler(session, transport, render, log)

	events := make(chan interface{}, 32)
	unsubscribe := transport.Subscribe(func(ev interface{}) {
		events <- ev
	})
	defer unsubscribe()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	render.Help()

	// Single loop. Commands, channel events and deferred timer work
	// all mutate the session from here, never concurrently.
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				dispatcher.Execute("/exit")
				return
			}
			if err := dispatcher.Execute(line); err != nil {
				return
			}
		case ev := <-events:
			reconciler.Apply(ev)
		case fn := <-dispatcher.Deferred():
			fn()
		}
	}
}
