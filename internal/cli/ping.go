package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	commands "github.com/urfave/cli/v3"

	"github.com/hitchyjs/skiff/internal/cluster"
)

const dialTimeout = time.Second

// Ping translates the configured cluster addresses and probes each client
// endpoint once, reporting which members are reachable.
func Ping(ctx context.Context, cmd *commands.Command) error {
	setupLogger(cmd.Bool("debug"))

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	members, err := cluster.Members(cfg.Cluster.Addresses, cfg.Cluster.HostOverride)
	if err != nil {
		return err
	}

	reachable := 0
	for _, member := range members {
		conn, err := net.DialTimeout("tcp", member.Endpoint.String(), dialTimeout)
		if err != nil {
			fmt.Printf("%s %s (%s)\n", crossMark, member.Endpoint, member.Addr)
			continue
		}

		conn.Close()
		reachable++
		fmt.Printf("%s %s (%s)\n", checkMark, member.Endpoint, member.Addr)
	}

	if reachable == 0 {
		return fmt.Errorf("no cluster member reachable")
	}

	fmt.Printf("\n%s reachable\n", yellow(fmt.Sprintf("%d/%d", reachable, len(members))))
	return nil
}
