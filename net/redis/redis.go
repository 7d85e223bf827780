package redis

import (
	"fmt"

	"github.com/mediocregopher/radix/v3"
)

// Config structure
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Client wraps a radix connection pool
type Client struct {
	cfg  Config
	pool *radix.Pool
}

// NewClient constructor
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Connect opens the connection pool
func (client *Client) Connect() error {
	size := client.cfg.PoolSize
	if size == 0 {
		size = 10
	}
	opts := []radix.PoolOpt{}
	if client.cfg.Password != "" {
		connFunc := func(network, addr string) (radix.Conn, error) {
			return radix.Dial(network, addr, radix.DialAuthPass(client.cfg.Password))
		}
		opts = append(opts, radix.PoolConnFunc(connFunc))
	}
	pool, err := radix.NewPool("tcp", fmt.Sprintf("%s:%d", client.cfg.Host, client.cfg.Port), size, opts...)
	if err != nil {
		return err
	}
	client.pool = pool
	return nil
}

// Disconnect closes the connection pool
func (client *Client) Disconnect() error {
	if client.pool == nil {
		return nil
	}
	return client.pool.Close()
}

// Exec runs a single command and optionally scans the reply into rcv
func (client *Client) Exec(rcv interface{}, cmd string, args ...interface{}) error {
	key := ""
	rest := args
	if len(args) > 0 {
		key = fmt.Sprintf("%v", args[0])
		rest = args[1:]
	}
	return client.pool.Do(radix.FlatCmd(rcv, cmd, key, rest...))
}
