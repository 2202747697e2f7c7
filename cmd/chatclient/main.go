package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"groupchat/internal/app/message"
	"groupchat/internal/chatclient"
	"groupchat/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	_ = utils.LoadEnv()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "chatclient",
		Usage:  "talk to a groupchat server from the terminal",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"CHAT_SERVER"}, Usage: "server base URL"},
			&cli.StringFlag{Name: "email", EnvVars: []string{"CHAT_EMAIL"}, Usage: "account email"},
			&cli.StringFlag{Name: "password", EnvVars: []string{"CHAT_PASSWORD"}, Usage: "account password"},
			&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, EnvVars: []string{"CHAT_TIMEOUT"}, Usage: "per-request timeout"},
			&cli.BoolFlag{Name: "verbose", Usage: "log sync cycles to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "create an account with --email and --password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
				},
				Action: func(c *cli.Context) error {
					api, err := newAPI(c)
					if err != nil {
						return err
					}
					if err := api.Register(c.Context, c.String("email"), c.String("first-name"), c.String("last-name"), c.String("password")); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "registered", c.String("email"))
					return nil
				},
			},
			{
				Name:      "send",
				Usage:     "post a message",
				ArgsUsage: "<text>",
				Action: func(c *cli.Context) error {
					text := strings.Join(c.Args().Slice(), " ")
					api, err := login(c)
					if err != nil {
						return err
					}
					msg, err := api.Send(c.Context, text)
					if err != nil {
						return explain(err)
					}
					printMessage(c.App.Writer, msg)
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "replace the content of one of your messages",
				ArgsUsage: "<id> <text>",
				Action: func(c *cli.Context) error {
					id, err := messageID(c)
					if err != nil {
						return err
					}
					api, err := login(c)
					if err != nil {
						return err
					}
					msg, err := api.Edit(c.Context, id, strings.Join(c.Args().Tail(), " "))
					if err != nil {
						return explain(err)
					}
					printMessage(c.App.Writer, msg)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete one of your messages",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := messageID(c)
					if err != nil {
						return err
					}
					api, err := login(c)
					if err != nil {
						return err
					}
					if err := api.Delete(c.Context, id); err != nil {
						return explain(err)
					}
					fmt.Fprintln(c.App.Writer, "deleted", id)
					return nil
				},
			},
			{
				Name:      "search",
				Usage:     "list messages containing a substring",
				ArgsUsage: "<text>",
				Action: func(c *cli.Context) error {
					api, err := login(c)
					if err != nil {
						return err
					}
					found, err := api.Search(c.Context, strings.Join(c.Args().Slice(), " "))
					if err != nil {
						return explain(err)
					}
					if len(found) == 0 {
						fmt.Fprintln(c.App.Writer, "No messages Found")
					}
					for _, m := range found {
						printMessage(c.App.Writer, m)
					}
					return nil
				},
			},
			{
				Name:  "watch",
				Usage: "follow the conversation, polling for changes",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: chatclient.DefaultPollInterval, EnvVars: []string{"CHAT_POLL_INTERVAL"}},
					&cli.BoolFlag{Name: "no-nudge", Usage: "poll only, do not listen on the websocket"},
				},
				Action: watch,
			},
		},
	}
}

func newAPI(c *cli.Context) (*chatclient.API, error) {
	if c.String("email") == "" || c.String("password") == "" {
		return nil, errors.New("--email and --password (or CHAT_EMAIL and CHAT_PASSWORD) are required")
	}
	return chatclient.NewAPI(c.String("server"), c.Duration("timeout"))
}

func login(c *cli.Context) (*chatclient.API, error) {
	api, err := newAPI(c)
	if err != nil {
		return nil, err
	}
	if err := api.Login(c.Context, c.String("email"), c.String("password")); err != nil {
		return nil, explain(err)
	}
	return api, nil
}

func messageID(c *cli.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid message id %q", c.Args().First())
	}
	return id, nil
}

// explain turns an API failure into the text the user sees.
func explain(err error) error {
	r := chatclient.ClassifyError(err)
	var statusErr *chatclient.StatusError
	switch {
	case r.Action == chatclient.ActionNotice && !errors.As(err, &statusErr):
		return fmt.Errorf("can not reach the server: %w", err)
	case r.Action == chatclient.ActionNotice:
		return errors.New(r.Notice)
	case r.Action == chatclient.ActionLogin:
		return fmt.Errorf("not logged in: %w", err)
	default:
		return fmt.Errorf("unexpected error, please try again later: %w", err)
	}
}

func printMessage(w io.Writer, m *message.Message) {
	author := "?"
	if m.User != nil {
		author = m.User.FirstName + " " + m.User.LastName
	}
	stamp := m.CreatedAt.Local().Format("15:04")
	if !m.UpdatedAt.Equal(m.CreatedAt) {
		stamp += " (edited)"
	}
	fmt.Fprintf(w, "[%d] %s %s: %s\n", m.ID, stamp, author, html.UnescapeString(m.Content))
}

type terminal struct {
	out    io.Writer
	faults chan error
	logins chan struct{}
}

func (t *terminal) MessagesChanged(messages []*message.Message) {
	fmt.Fprintln(t.out, "----")
	for _, m := range messages {
		printMessage(t.out, m)
	}
}

func (t *terminal) Notice(text string) {
	fmt.Fprintln(t.out, "!", text)
}

func (t *terminal) LoginRequired() {
	select {
	case t.logins <- struct{}{}:
	default:
	}
}

func (t *terminal) Fault(err error) {
	select {
	case t.faults <- err:
	default:
	}
}

func watch(c *cli.Context) error {
	logger := zap.NewNop()
	if c.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	api, err := login(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := &terminal{out: c.App.Writer, faults: make(chan error, 1), logins: make(chan struct{}, 1)}
	engine := chatclient.NewEngine(api, term, logger, chatclient.WithInterval(c.Duration("interval")))

	if !c.Bool("no-nudge") {
		go listenForNudges(ctx, api, engine, logger.Sugar())
	}

	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	for {
		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case err := <-term.faults:
			stop()
			return explain(err)
		case <-term.logins:
			fmt.Fprintln(c.App.Writer, "! session expired, logging in again")
			if err := api.Login(ctx, c.String("email"), c.String("password")); err != nil {
				stop()
				return explain(err)
			}
			engine.Refresh()
		}
	}
}

// listenForNudges turns websocket change events into early refreshes. It
// reconnects with the current session key until ctx ends.
func listenForNudges(ctx context.Context, api *chatclient.API, engine *chatclient.Engine, log *zap.SugaredLogger) {
	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, api.WebsocketURL(), nil)
		if err != nil {
			log.Debugw("Websocket dial failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		closed := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
			case <-closed:
			}
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Debugw("Websocket closed", "error", err)
				break
			}
			engine.Refresh()
		}
		close(closed)
	}
}
