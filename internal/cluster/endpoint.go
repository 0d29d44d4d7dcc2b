package cluster

import (
	"fmt"
	"strconv"
	"strings"
)

// ClientPortOffset is added to a node's cluster-internal port to reach
// its client-facing HTTP listener.
const ClientPortOffset = 1

// Endpoint is a client-facing (host, port) address of a cluster member.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// URL builds an HTTP URL for the given path on this endpoint.
func (e Endpoint) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return fmt.Sprintf("http://%s:%d%s", e.Host, e.Port, path)
}

// Member pairs a node's cluster-internal multiaddr with the client
// endpoint derived from it.
type Member struct {
	Addr     string
	Endpoint Endpoint
}

// FromMultiaddr translates a cluster-internal multiaddr like
// "/ip4/127.0.0.1/tcp/9190" into a client endpoint. The client port is the
// internal port plus ClientPortOffset. If hostOverride is non-empty it
// replaces the address's host, which is how local test clusters are reached.
func FromMultiaddr(addr, hostOverride string) (Endpoint, error) {
	parts := strings.Split(strings.TrimPrefix(addr, "/"), "/")
	if len(parts) != 4 || parts[2] != "tcp" {
		return Endpoint{}, fmt.Errorf("unsupported multiaddr %q", addr)
	}

	port, err := strconv.Atoi(parts[3])
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid port in multiaddr %q: %w", addr, err)
	}

	host := parts[1]
	if hostOverride != "" {
		host = hostOverride
	}

	return Endpoint{Host: host, Port: port + ClientPortOffset}, nil
}

// Members translates a list of cluster-internal addresses into members,
// preserving order.
func Members(addrs []string, hostOverride string) ([]Member, error) {
	members := make([]Member, 0, len(addrs))
	for _, addr := range addrs {
		ep, err := FromMultiaddr(addr, hostOverride)
		if err != nil {
			return nil, err
		}

		members = append(members, Member{Addr: addr, Endpoint: ep})
	}

	return members, nil
}
