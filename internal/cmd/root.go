package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/outship-io/outship"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type CommandFactory struct {
	CreateClient  func(ctx context.Context, flags *Flags) (outship.Client, aws.Config, error)
	CreateLogger  func(flags *Flags) (*zap.Logger, error)
	NotifyContext func(ctx context.Context) (context.Context, context.CancelFunc)
	Stdin         io.Reader
	Stdout        io.Writer
}

var defaultCommandFactory = CommandFactory{
	CreateClient:  createClient,
	CreateLogger:  newLogger,
	NotifyContext: notifyContext,
	Stdin:         os.Stdin,
	Stdout:        os.Stdout,
}

var root = defaultCommandFactory.CreateCommandTree(flgs)

func (f CommandFactory) stdin() io.Reader {
	if f.Stdin == nil {
		return os.Stdin
	}
	return f.Stdin
}

func (f CommandFactory) stdout() io.Writer {
	if f.Stdout == nil {
		return os.Stdout
	}
	return f.Stdout
}

func (f CommandFactory) logger(flgs *Flags) (*zap.Logger, error) {
	if f.CreateLogger == nil {
		return zap.NewNop(), nil
	}
	return f.CreateLogger(flgs)
}

func (f CommandFactory) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.NotifyContext == nil {
		return notifyContext(ctx)
	}
	return f.NotifyContext(ctx)
}

// session is what every command needs after start-up.
type session struct {
	client outship.Client
	cfg    outship.Config
	logger *zap.Logger
}

func (s *session) engineOptions() []func(*outship.EngineOptions) {
	return append(s.cfg.EngineOptions(), outship.WithLogger(s.logger))
}

func (s *session) service() *outship.Service {
	return outship.NewService(s.client, s.client, s.engineOptions()...)
}

func (f CommandFactory) open(ctx context.Context, flgs *Flags) (*session, error) {
	client, _, err := f.CreateClient(ctx, flgs)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(flgs)
	if err != nil {
		return nil, err
	}
	logger, err := f.logger(flgs)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &session{client: client, cfg: cfg, logger: logger}, nil
}

func (f CommandFactory) CreateRootCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "outship",
		Short: "Outship reconciles outbound shipments with their source orders, work orders and serial numbers",
		Long: `Outship reconciles outbound shipments with their source orders, work orders and serial numbers.
Run without a subcommand to start the interactive mode.`,
		Version:      "",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := f.stdout()
			defer fmt.Fprintf(out, "... Interactive is ending\n\n\n")

			fmt.Fprintln(out, "===========================================================")
			fmt.Fprintln(out, ">> Welcome to Outship CLI! [INTERACTIVE MODE]")
			fmt.Fprintln(out, "===========================================================")
			fmt.Fprintln(out, "for help, enter one of the following: ? or h or help")
			fmt.Fprintln(out, "all commands in CLIs need to be typed in lowercase")
			fmt.Fprintln(out, "")

			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return fmt.Errorf("... %w", err)
			}

			fmt.Fprintln(out, "... AWS session is properly established!")
			fmt.Fprintf(out, "TableName: %s\n", s.cfg.Table.Name)
			fmt.Fprintf(out, "EndpointURL: %s\n", s.cfg.Table.EndpointURL)
			fmt.Fprintln(out, "")

			c := Interactive{
				Client:  s.client,
				Service: s.service(),
				Out:     out,
			}

			scanner := bufio.NewScanner(f.stdin())
			for {
				if c.Shipment != nil {
					fmt.Fprintf(out, "\nID <%v> >> Enter command: ", c.Shipment.ID)
				} else {
					fmt.Fprint(out, "\n>> Enter command: ")
				}
				if !scanner.Scan() {
					break
				}
				command, params := parseInput(scanner.Text())
				switch command {
				case "":
					continue
				case "quit", "q":
					return nil
				default:
					c.Run(ctx, command, params)
				}
			}
			return scanner.Err()
		},
	}
}

// CreateCommandTree returns the root command with every subcommand attached.
func (f CommandFactory) CreateCommandTree(flgs *Flags) *cobra.Command {
	r := f.CreateRootCommand(flgs)
	setPersistentFlags(r, flgs)
	r.AddCommand(
		f.CreateSubmitCommand(flgs),
		f.CreateJobCommand(flgs),
		f.CreateJobsCommand(flgs),
		f.CreateWorkerCommand(flgs),
		f.CreateServeCommand(flgs),
		f.CreateSyncWorkOrdersCommand(flgs),
		f.CreateCheckShippableCommand(flgs),
		f.CreateFulfillCommand(flgs),
		f.CreateInspectCommand(flgs),
		f.CreateDeleteShipmentCommand(flgs),
		f.CreateAssignSerialCommand(flgs),
		f.CreateUnassignSerialCommand(flgs),
		f.CreateReclaimOrphansCommand(flgs),
	)
	return r
}

// loadConfig reads the configuration file and applies the flag overrides.
func loadConfig(flags *Flags) (outship.Config, error) {
	cfg, err := outship.LoadConfig(flags.Config)
	if err != nil {
		return cfg, err
	}
	if flags.TableName != "" {
		cfg.Table.Name = flags.TableName
	}
	if flags.IndexName != "" {
		cfg.Table.IndexName = flags.IndexName
	}
	if flags.EndpointURL != "" {
		cfg.Table.EndpointURL = flags.EndpointURL
	}
	if flags.HTTPAddr != "" {
		cfg.HTTP.Addr = flags.HTTPAddr
	}
	return cfg, nil
}

func createClient(ctx context.Context, flags *Flags) (outship.Client, aws.Config, error) {
	c, err := loadConfig(flags)
	if err != nil {
		return nil, aws.Config{}, err
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	client, err := outship.NewFromConfig(cfg, c.ClientOptions()...)
	if err != nil {
		return nil, cfg, fmt.Errorf("AWS session could not be established!: %w", err)
	}
	return client, cfg, nil
}

func newLogger(flags *Flags) (*zap.Logger, error) {
	if flags.Verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func parseInput(input string) (command string, params []string) {
	arr := strings.Fields(input)
	if len(arr) == 0 {
		return "", nil
	}
	command = strings.ToLower(arr[0])
	if len(arr) > 1 {
		params = arr[1:]
	}
	return command, params
}

func Execute() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
