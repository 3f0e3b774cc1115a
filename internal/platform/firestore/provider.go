package firestore

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	dialTimeout        = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"
)

// ErrProviderClosed is returned after Close; the Provider cannot be reused.
var ErrProviderClosed = errors.New("firestore: provider is closed")

// Config holds the settings needed to dial Firestore. An emulator host, when
// set, switches the client to unauthenticated local mode.
type Config struct {
	ProjectID    string
	DatabaseID   string
	EmulatorHost string
}

// Provider owns a lazily created, shared Firestore client.
type Provider struct {
	cfg  Config
	opts []option.ClientOption

	once   sync.Once
	client *firestore.Client
	dialEr error

	mu     sync.Mutex
	closed bool
}

func NewProvider(cfg Config, opts ...option.ClientOption) *Provider {
	return &Provider{cfg: cfg, opts: opts}
}

// Client dials Firestore on first use and returns the shared client.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrProviderClosed
	}

	p.once.Do(func() {
		p.client, p.dialEr = p.dial(ctx)
	})
	if p.dialEr != nil {
		return nil, p.dialEr
	}
	return p.client, nil
}

func (p *Provider) dial(ctx context.Context) (*firestore.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	projectID := strings.TrimSpace(p.cfg.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv(envGoogleProjectID))
	}
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}

	opts := append([]option.ClientOption(nil), p.opts...)
	if host := p.emulatorHost(); host != "" {
		if os.Getenv(envEmulatorHost) == "" {
			_ = os.Setenv(envEmulatorHost, host)
		}
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	database := strings.TrimSpace(p.cfg.DatabaseID)
	if database == "" {
		return firestore.NewClient(ctx, projectID, opts...)
	}
	return firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
}

func (p *Provider) emulatorHost() string {
	if host := strings.TrimSpace(p.cfg.EmulatorHost); host != "" {
		return host
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}

// Close releases the client. Safe to call multiple times.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
