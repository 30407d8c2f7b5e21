package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "events",
		Short:         "Stream engine change events until interrupted",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          streamEvents,
	}
}

func streamEvents(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	frames, err := c.StreamEvents(ctx)
	if err != nil {
		return out.Error("Failed to open event stream", err)
	}

	for frame := range frames {
		if out.jsonMode {
			raw, _ := json.Marshal(frame)
			fmt.Println(string(raw))
			continue
		}
		payload := ""
		if len(frame.Payload) > 0 {
			payload = " " + string(frame.Payload)
		}
		fmt.Printf("%s %s%s\n", frame.Timestamp.Format("15:04:05"), frame.Topic, payload)
	}
	return nil
}
