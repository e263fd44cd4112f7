package redis_source

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/lib/tools"
	"github.com/yaotthaha/ipcheck/log"

	"github.com/redis/go-redis/v9"
)

var (
	_ adapter.Source            = (*Redis)(nil)
	_ adapter.Starter           = (*Redis)(nil)
	_ adapter.Closer            = (*Redis)(nil)
	_ adapter.WithContext       = (*Redis)(nil)
	_ adapter.WithContextLogger = (*Redis)(nil)
)

func init() {
	adapter.RegisterSource(constant.SourceRedis, NewRedis)
}

const (
	KindSet    = "set"
	KindList   = "list"
	KindString = "string"
)

var ErrNotStarted = errors.New("redis source not started")

type Redis struct {
	tag         string
	ctx         context.Context
	logger      log.ContextLogger
	address     string
	isUnix      bool
	password    string
	database    int
	key         string
	kind        string
	redisClient *redis.Client
}

type option struct {
	Address  string `config:"address"`
	Password string `config:"password"`
	Database int    `config:"database"`
	Key      string `config:"key"`
	Kind     string `config:"kind"`
}

func NewRedis(tag string, args map[string]any) (adapter.Source, error) {
	r := &Redis{
		tag: tag,
		ctx: context.Background(),
	}

	var op option
	err := tools.NewMapStructureDecoderWithResult(&op).Decode(args)
	if err != nil {
		return nil, fmt.Errorf("decode config fail: %s", err)
	}
	if op.Address == "" {
		return nil, fmt.Errorf("address must be not empty")
	}
	if op.Key == "" {
		return nil, fmt.Errorf("key must be not empty")
	}
	address, err := netip.ParseAddrPort(op.Address)
	if err == nil {
		r.address = address.String()
	} else if strings.HasPrefix(op.Address, "/") {
		r.address = op.Address
		r.isUnix = true
	} else {
		// host:port with a hostname
		r.address = op.Address
	}
	switch op.Kind {
	case "":
		r.kind = KindSet
	case KindSet, KindList, KindString:
		r.kind = op.Kind
	default:
		return nil, fmt.Errorf("invalid kind: %s", op.Kind)
	}
	r.password = op.Password
	r.database = op.Database
	r.key = op.Key

	return r, nil
}

func (r *Redis) Tag() string {
	return r.tag
}

func (r *Redis) Type() string {
	return constant.SourceRedis
}

func (r *Redis) WithContext(ctx context.Context) {
	r.ctx = ctx
}

func (r *Redis) WithContextLogger(contextLogger log.ContextLogger) {
	r.logger = contextLogger
}

func (r *Redis) Start() error {
	if r.isUnix {
		_, err := os.Stat(r.address)
		if err != nil {
			return fmt.Errorf("unix socket error: %s", err)
		}
	}
	opts := &redis.Options{
		Addr:     r.address,
		Password: r.password,
		OnConnect: func(ctx context.Context, cn *redis.Conn) error {
			if r.logger != nil {
				r.logger.Debug("connect to redis")
			}
			return nil
		},
		DB:           r.database,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		PoolSize:     2,
	}
	if r.isUnix {
		opts.Network = "unix"
	}
	c := redis.NewClient(opts)
	_, err := c.Ping(r.ctx).Result()
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("ping redis fail: %s", err)
	}
	r.redisClient = c
	return nil
}

func (r *Redis) Close() error {
	if r.redisClient == nil {
		return nil
	}
	err := r.redisClient.Close()
	if err != nil {
		return fmt.Errorf("close redis fail: %s", err)
	}
	return nil
}

func (r *Redis) Fetch(ctx context.Context) (string, error) {
	if r.redisClient == nil {
		return "", ErrNotStarted
	}
	var (
		lines []string
		err   error
	)
	switch r.kind {
	case KindSet:
		lines, err = r.redisClient.SMembers(ctx, r.key).Result()
	case KindList:
		lines, err = r.redisClient.LRange(ctx, r.key, 0, -1).Result()
	case KindString:
		var value string
		value, err = r.redisClient.Get(ctx, r.key).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return value, err
	}
	if err != nil {
		return "", fmt.Errorf("read key %s fail: %w", r.key, err)
	}
	return strings.Join(lines, "\n"), nil
}
