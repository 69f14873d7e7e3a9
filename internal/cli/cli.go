package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloudpos/internal/config"
	"cloudpos/internal/erp"
	"cloudpos/internal/ticket"

	"go.uber.org/zap"
)

type Runner struct {
	options Options
	logger  *zap.Logger
	policy  ticket.ChargePolicy
	client  *erp.Client
}

func NewRunner(cfg config.Config, logger *zap.Logger, client *erp.Client) *Runner {
	logger = logger.Named("cli")
	opts := Options{
		BaseURL:      cfg.BaseURL,
		Token:        cfg.Token,
		Username:     cfg.Username,
		Password:     cfg.Password,
		CompanyEmail: cfg.CompanyEmail,
		Timeout:      cfg.Timeout,
		LogFile:      cfg.LogFile,
		Debug:        cfg.Debug,
	}

	return &Runner{
		options: opts,
		logger:  logger,
		policy:  ticket.NewChargePolicy(cfg.ServiceChargeRate, cfg.ChargedPaymentTypes),
		client:  client,
	}
}

func (r *Runner) Execute() error {
	return runCLI(&r.options, r.logger, r.policy, r.client)
}

func runCLI(opts *Options, logger *zap.Logger, policy ticket.ChargePolicy, client *erp.Client) error {
	var timeoutSeconds int

	fs := flag.NewFlagSet("cloudpos", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [command ...]\n\nCommands:\n%s\nFlags:\n", fs.Name(), commandHelp)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.BaseURL, "base-url", opts.BaseURL, "Order service base URL (POS_BASE_URL)")
	fs.StringVar(&opts.Token, "token", opts.Token, "API bearer token (POS_TOKEN)")
	fs.StringVar(&opts.Username, "user", opts.Username, "Login username (POS_USERNAME)")
	fs.StringVar(&opts.Password, "password", opts.Password, "Login password (POS_PASSWORD)")
	fs.StringVar(&opts.CompanyEmail, "company", opts.CompanyEmail, "Company email (POS_COMPANY_EMAIL)")
	fs.StringVar(&opts.From, "from", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&opts.To, "to", "", "End date (YYYY-MM-DD)")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON format")
	fs.BoolVar(&opts.Debug, "debug", opts.Debug, "Enable debug logging")
	fs.StringVar(&opts.LogFile, "log-file", opts.LogFile, "Log file path")
	fs.IntVar(&timeoutSeconds, "timeout", int(opts.Timeout.Seconds()), "Timeout in seconds")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if timeoutSeconds > 0 {
		opts.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	opts.Command = fs.Args()

	// The fx-provided client is built from config; rebuild only when flags
	// override what it was constructed with.
	rebuild := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url", "token", "timeout":
			rebuild = true
		}
	})
	if rebuild {
		client = newERPClientFromOptions(opts, logger)
	}
	editor := ticket.NewEditor(client, policy, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	sess := &session{
		opts:   opts,
		logger: logger,
		client: client,
		editor: editor,
	}

	if len(opts.Command) > 0 {
		return sess.dispatch(ctx, opts.Command)
	}
	return runREPL(ctx, sess)
}

func newERPClientFromOptions(opts *Options, logger *zap.Logger) *erp.Client {
	cfg := config.Config{
		BaseURL: opts.BaseURL,
		Token:   opts.Token,
		Timeout: opts.Timeout,
	}
	return erp.NewClient(cfg, logger)
}

func runREPL(ctx context.Context, sess *session) error {
	reader := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(os.Stdout, "CloudPOS back office (type 'help' for commands, 'exit' to quit)")

	for {
		fmt.Fprint(os.Stdout, "> ")
		if !reader.Scan() {
			return reader.Err()
		}

		line := strings.TrimSpace(reader.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "help", "/help":
			fmt.Fprint(os.Stdout, commandHelp)
			continue
		case "exit", "quit":
			return nil
		}

		if err := sess.dispatch(ctx, strings.Fields(line)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(os.Stderr, friendlyError(err))
		}
	}
}
