package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"calhook/internal/config"
	"calhook/internal/google"
	"calhook/internal/handler"
	"calhook/internal/ics"
	"calhook/internal/nlparse"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calhook",
		Usage: "Create Google Calendar events from JSON or short sentences. Runs as an AWS Lambda handler when started without a command.",
		Commands: []*cli.Command{
			lambdaCommand(),
			createCommand(),
			parseCommand(),
			authCommand(),
			agendaCommand(),
		},
		Action: runLambda,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func lambdaCommand() *cli.Command {
	return &cli.Command{
		Name:   "lambda",
		Usage:  "Serve API Gateway proxy events on the Lambda runtime (default).",
		Action: runLambda,
	}
}

func runLambda(c *cli.Context) error {
	h, logger, err := newHandler()
	if err != nil {
		return err
	}
	logger.Info("Starting Lambda handler.")
	lambda.Start(h.Handle)
	return nil
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create one event, exactly as the Lambda handler would, and print the response.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "Natural language, e.g. \"Team sync at 3 PM CST for 2 hours\"."},
			&cli.StringFlag{Name: "json", Usage: "Path to a Calendar API event resource in JSON, or - for stdin."},
		},
		Action: func(c *cli.Context) error {
			body, err := requestBody(c.String("text"), c.String("json"))
			if err != nil {
				return err
			}

			h, _, err := newHandler()
			if err != nil {
				return err
			}

			resp, err := h.Handle(c.Context, events.APIGatewayProxyRequest{Body: body})
			if err != nil {
				return err
			}
			fmt.Println(resp.Body)
			if resp.StatusCode >= 300 {
				return fmt.Errorf("event creation failed with status %d", resp.StatusCode)
			}
			return nil
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Show the event a sentence turns into, without calling Google.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Required: true, Usage: "Natural language to parse."},
			&cli.BoolFlag{Name: "ics", Usage: "Print iCalendar instead of Calendar API JSON."},
		},
		Action: func(c *cli.Context) error {
			x, err := nlparse.Parse(c.String("text"))
			if err != nil {
				return fmt.Errorf("failed to parse input: %w", err)
			}
			if x.DateHint != "at" {
				fmt.Fprintf(os.Stderr, "note: %q is not resolved to a date; the event is placed on %s\n",
					x.DateHint, nlparse.DefaultDate.Format(time.DateOnly))
			}

			if c.Bool("ics") {
				return ics.Encode(os.Stdout, x.Event())
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(x.Event())
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize a Google account and save a token file holding its refresh token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "token.json", Usage: "Where to write the token."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			clientID, clientSecret := os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET")
			if clientID == "" || clientSecret == "" {
				oc, err := config.ClientFromCredentialsFile("credentials.json")
				if err != nil {
					return fmt.Errorf("failed to get google oauth config: %w", err)
				}
				clientID, clientSecret = oc.ClientID, oc.ClientSecret
			}
			oauthConfig := google.OAuthConfig(clientID, clientSecret)

			fmt.Printf("Go to the following link in your browser, approve access, then paste the "+
				"'code' parameter of the page you are redirected to: \n%v\n", google.AuthCodeURL(oauthConfig, "state-token"))

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			tokenFile := c.String("out")
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token. Set GOOGLE_TOKEN_FILE or GOOGLE_REFRESH_TOKEN from it.", "file", tokenFile)
			return nil
		},
	}
}

func agendaCommand() *cli.Command {
	return &cli.Command{
		Name:  "agenda",
		Usage: "List upcoming events of the configured calendar.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 7, Usage: "How many days ahead to look."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := setupLogger(cfg.LogLevel)

			accessToken, err := google.NewTokenRefresher(logger, cfg.TokenURL, nil).
				Refresh(c.Context, cfg.RefreshToken, cfg.ClientID, cfg.ClientSecret)
			if err != nil {
				return err
			}

			upcoming, err := google.NewClient(logger, cfg.CalendarID, cfg.CalendarEndpoint).
				GetUpcomingEvents(c.Context, accessToken, c.Int("days"))
			if err != nil {
				return err
			}

			for _, e := range upcoming {
				fmt.Printf("%s  %s - %s  %s\n", e.StartTime.Format(time.DateTime), e.EndTime.Format(time.Kitchen), e.Title, e.Link)
			}
			return nil
		},
	}
}

// newHandler wires the handler from the environment.
func newHandler() (*handler.Handler, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	h := handler.New(logger, cfg,
		google.NewTokenRefresher(logger, cfg.TokenURL, nil),
		google.NewClient(logger, cfg.CalendarID, cfg.CalendarEndpoint),
	)
	return h, logger, nil
}

// requestBody builds the invocation body from exactly one of text or jsonPath.
func requestBody(text, jsonPath string) (string, error) {
	switch {
	case text != "" && jsonPath != "":
		return "", fmt.Errorf("use either --text or --json, not both")
	case text != "":
		b, err := json.Marshal(map[string]string{"natural_language": text})
		return string(b), err
	case jsonPath == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	case jsonPath != "":
		b, err := os.ReadFile(jsonPath)
		if err != nil {
			return "", fmt.Errorf("failed to read event file: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("one of --text or --json is required")
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
