package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/regulator/ruleset"
	"github.com/MrEthical07/regulator/store"
)

type backendFlags struct {
	redisAddr  string
	sqlitePath string
	prefix     string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.redisAddr, "redis", "", "Redis address (REDIS_ADDR when empty)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite", "", "SQLite database path")
	cmd.Flags().StringVar(&f.prefix, "prefix", "reg", "Redis key prefix")
	cmd.MarkFlagsMutuallyExclusive("redis", "sqlite")
}

// open returns the selected backend. With allowEmbedded and no address, an in-process
// miniredis is started so the command runs without infrastructure.
func (f *backendFlags) open(allowEmbedded bool) (store.Store, func(), error) {
	if f.sqlitePath != "" {
		s, err := store.OpenSQLite(f.sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	addr := f.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		if !allowEmbedded {
			return nil, nil, fmt.Errorf("one of --redis, --sqlite, or REDIS_ADDR is required")
		}
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return store.NewRedisStore(client, f.prefix), func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	return store.NewRedisStore(client, f.prefix), func() { _ = client.Close() }, nil
}

var (
	pushBackend backendFlags
	pullBackend backendFlags
	listBackend backendFlags
)

func init() {
	rootCmd.AddCommand(pushCmd, pullCmd, listCmd)
	pushBackend.register(pushCmd)
	pullBackend.register(pullCmd)
	listBackend.register(listCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Validate --rules and save it to a backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rs, hash, eng, logger, err := loadRules()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		eng.close()

		s, done, err := pushBackend.open(false)
		if err != nil {
			return err
		}
		defer done()

		version, err := s.Save(cmd.Context(), rs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s version=%d %s\n", rs.Name, version, hash)
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Print a stored rule set as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := pullBackend.open(false)
		if err != nil {
			return err
		}
		defer done()

		rs, version, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := ruleset.Marshal(rs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# version %d\n%s", version, data)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rule sets with their versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, done, err := listBackend.open(false)
		if err != nil {
			return err
		}
		defer done()
		return printList(cmd.Context(), cmd, s)
	},
}

func printList(ctx context.Context, cmd *cobra.Command, s store.Store) error {
	names, err := s.List(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, name := range names {
		v, err := s.Version(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s\t%d\n", name, v)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
	return err
}
