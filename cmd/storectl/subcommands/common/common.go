package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/chrisstore/store/pkg/domain/store"
	"github.com/youta-t/flarc"
)

// CommonFlags tell how to connect to the database.
type CommonFlags struct {
	Host     string `flag:"host" help:"The host of the database."`
	Port     int    `flag:"port" help:"The port of the database."`
	User     string `flag:"user" help:"The user of the database."`
	Password string `flag:"pass" help:"The password of the database."`
	Database string `flag:"database" help:"The name of the database."`

	Schema string `flag:"schema" help:"The path to the schema repository directory."`
}

// DefaultCommonFlags reads defaults of CommonFlags from environment variables
// DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME and STORE_SCHEMA.
func DefaultCommonFlags() CommonFlags {
	port := 5432
	if sp := os.Getenv("DB_PORT"); sp != "" {
		p, err := strconv.Atoi(sp)
		if err == nil {
			port = p
		}
	}

	return CommonFlags{
		Host:     os.Getenv("DB_HOST"),
		Port:     port,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		Schema:   os.Getenv("STORE_SCHEMA"),
	}
}

// DBURI builds the connection string of the database.
func (cf CommonFlags) DBURI() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cf.User, cf.Password),
		Host:   fmt.Sprintf("%s:%d", cf.Host, cf.Port),
		Path:   "/" + cf.Database,
	}
	return u.String()
}

type StoreTask[T any] func(
	ctx context.Context,
	logger *log.Logger,
	st store.Store,
	cl flarc.Commandline[T],
	params []any,
) error

// Connector opens the store with common flags.
type Connector func(ctx context.Context, cf CommonFlags) (store.Store, error)

func Connect(ctx context.Context, cf CommonFlags) (store.Store, error) {
	return store.New(ctx, cf.DBURI(), store.WithSchemaRepository(cf.Schema))
}

// NewTask makes flarc.Task from StoreTask.
//
// The store is opened with common flags passed from the parent command, and closed after task.
func NewTask[T any](connect Connector, task StoreTask[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		st, err := connect(ctx, commonFlag)
		if err != nil {
			return fmt.Errorf("can not connect to the database: %w", err)
		}
		defer st.Close()

		return task(ctx, logger, st, cl, newpos)
	}
}
