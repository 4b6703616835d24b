package sentinel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/sos-sentinel/internal/config"
	"github.com/oshokin/sos-sentinel/internal/identity"
	"github.com/oshokin/sos-sentinel/internal/logger"
	"github.com/oshokin/sos-sentinel/internal/repository/directory"
)

// Directory lists and actions accepted by ManageDirectory.
const (
	ListContacts    = "contacts"
	ListSubscribers = "subscribers"

	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionList   = "list"
)

var (
	// errUnknownList is returned for a list other than contacts or subscribers.
	errUnknownList = errors.New("unknown directory list")
	// errUnknownAction is returned for an action other than add, remove or list.
	errUnknownAction = errors.New("unknown directory action")
	// errUserRequired is returned when no user id is given.
	errUserRequired = errors.New("user id must be provided")
)

// DirectoryOptions selects one change to the directory store.
type DirectoryOptions struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// List is ListContacts or ListSubscribers.
	List string
	// Action is ActionAdd, ActionRemove or ActionList.
	Action string
	// UserID owns the list.
	UserID string
	// Values are phone numbers or subscriber ids.
	Values []string
	// Out receives listings.
	Out io.Writer
}

// ManageDirectory edits or prints a contacts or subscribers list.
//
//nolint:cyclop // One switch per list and action.
func ManageDirectory(ctx context.Context, opts *DirectoryOptions) error {
	ctx = logger.WithName(ctx, "directory")

	if opts.UserID == "" {
		return errUserRequired
	}

	if opts.List != ListContacts && opts.List != ListSubscribers {
		return fmt.Errorf("%w: %q", errUnknownList, opts.List)
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := directory.Open(ctx, settings.Storage.Driver, settings.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open directory store: %w", err)
	}

	defer store.Close() //nolint:errcheck // Nothing to do on close failure.

	contacts := opts.List == ListContacts

	switch opts.Action {
	case ActionAdd:
		for _, value := range opts.Values {
			if contacts {
				err = store.AddContact(ctx, opts.UserID, value)
			} else {
				err = store.AddSubscriber(ctx, opts.UserID, value)
			}

			if err != nil {
				return err
			}

			logger.InfoKV(ctx, "Directory entry added", "list", opts.List, "user_id", opts.UserID, "value", value)
		}
	case ActionRemove:
		for _, value := range opts.Values {
			var removed bool

			if contacts {
				removed, err = store.RemoveContact(ctx, opts.UserID, value)
			} else {
				removed, err = store.RemoveSubscriber(ctx, opts.UserID, value)
			}

			if err != nil {
				return err
			}

			logger.InfoKV(ctx, "Directory entry removed",
				"list", opts.List, "user_id", opts.UserID, "value", value, "existed", removed)
		}
	case ActionList:
		var values []string

		if contacts {
			values, err = store.Contacts(ctx, opts.UserID)
		} else {
			values, err = store.Subscribers(ctx, opts.UserID)
		}

		if err != nil {
			return err
		}

		for _, value := range values {
			if _, err = fmt.Fprintln(opts.Out, value); err != nil {
				return fmt.Errorf("print directory: %w", err)
			}
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}

	return nil
}

// SessionOptions describes a session token to issue.
type SessionOptions struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// UserID becomes the token subject.
	UserID string
	// TTL bounds the token lifetime; zero never expires.
	TTL time.Duration
	// Save writes the token into the settings file.
	Save bool
	// Out receives the token.
	Out io.Writer
}

// IssueSession signs a session token with the configured key.
func IssueSession(_ context.Context, opts *SessionOptions) error {
	if opts.UserID == "" {
		return errUserRequired
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	token, err := identity.Sign(opts.UserID, settings.Identity.SigningKey, time.Now(), opts.TTL)
	if err != nil {
		return err
	}

	if opts.Save {
		settings.Identity.SessionToken = token

		if err = config.Save(opts.ConfigPath, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	if _, err = fmt.Fprintln(opts.Out, token); err != nil {
		return fmt.Errorf("print token: %w", err)
	}

	return nil
}
