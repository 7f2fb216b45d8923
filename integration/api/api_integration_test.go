//go:build integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	appdb "github.com/Flarenzy/vpc-provisioner/internal/db"
	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	apihttp "github.com/Flarenzy/vpc-provisioner/internal/http"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresPort   = "5432/tcp"
	containerReady = 2 * time.Minute
	httpReady      = 30 * time.Second
	failingSubnet  = "10.99.9.0/24"
)

type integrationSuite struct {
	httpClient *http.Client
	baseURL    string

	postgres testcontainers.Container
	pool     *pgxpool.Pool
	provider *fakeProvider

	server   *http.Server
	serveErr chan error
}

// fakeProvider stands in for EC2. It fails CreateSubnet for failingSubnet.
type fakeProvider struct {
	mu      sync.Mutex
	live    map[string]bool
	deleted []string
}

func (p *fakeProvider) CreateNetwork(context.Context, string, []domain.Tag) (string, error) {
	return p.add("vpc-" + uuid.NewString()[:8]), nil
}

func (p *fakeProvider) CreateSubnet(_ context.Context, _ string, spec domain.SubnetSpec) (string, error) {
	if spec.CIDR == failingSubnet {
		return "", errors.New("InsufficientFreeAddressesInSubnet")
	}
	return p.add("subnet-" + uuid.NewString()[:8]), nil
}

func (p *fakeProvider) DeleteSubnet(_ context.Context, id string) error {
	return p.remove(id)
}

func (p *fakeProvider) DeleteNetwork(_ context.Context, id string) error {
	return p.remove(id)
}

func (p *fakeProvider) add(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live[id] = true
	return id
}

func (p *fakeProvider) remove(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live[id] {
		return fmt.Errorf("%s does not exist", id)
	}
	delete(p.live, id)
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *fakeProvider) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

type networkResponse struct {
	NetworkID string   `json:"network_id"`
	CIDR      string   `json:"cidr"`
	SubnetIDs []string `json:"subnet_ids"`
	Tags      []struct {
		Key   string `json:"Key"`
		Value string `json:"Value"`
	} `json:"tags"`
}

type listResponse struct {
	Networks []networkResponse `json:"networks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var (
	suiteOnce   sync.Once
	suite       *integrationSuite
	suiteErr    error
	suiteClosed bool
)

func TestMain(m *testing.M) {
	code := m.Run()

	if suite != nil && !suiteClosed {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Minute)
		defer closeCancel()
		if err := suite.Close(closeCtx); err != nil {
			fmt.Printf("integration teardown failed: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
		suiteClosed = true
	}

	os.Exit(code)
}

func TestProbes(t *testing.T) {
	s := mustSuite(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := s.request(t, http.MethodGet, path, nil)
		if err != nil {
			t.Fatalf("%s request: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from %s, got %d", path, resp.StatusCode)
		}
		s.closeBody(t, resp)
	}
}

func TestCustomerJourney(t *testing.T) {
	s := mustSuite(t)

	createResp, err := s.jsonRequest(t, http.MethodPost, "/networks", map[string]any{
		"cidr": "10.42.0.0/16",
		"tags": []map[string]string{{"Key": "Name", "Value": "integration"}},
		"subnets": []map[string]any{
			{"cidr": "10.42.1.0/24", "az": "eu-west-1a"},
			{"cidr": "10.42.2.0/24", "az": "eu-west-1b"},
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	if createResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 creating network, got %d: %s", createResp.StatusCode, s.readBody(t, createResp))
	}
	var created networkResponse
	s.decodeJSON(t, createResp, &created)
	if created.NetworkID == "" || len(created.SubnetIDs) != 2 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	getResp, err := s.request(t, http.MethodGet, "/networks?network_id="+created.NetworkID, nil)
	if err != nil {
		t.Fatalf("get network: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reading network, got %d", getResp.StatusCode)
	}
	var fetched networkResponse
	s.decodeJSON(t, getResp, &fetched)
	if fetched.CIDR != "10.42.0.0/16" || len(fetched.Tags) != 1 || fetched.Tags[0].Value != "integration" {
		t.Fatalf("unexpected network: %+v", fetched)
	}
	if fetched.SubnetIDs[0] != created.SubnetIDs[0] || fetched.SubnetIDs[1] != created.SubnetIDs[1] {
		t.Fatalf("expected subnet order %v, got %v", created.SubnetIDs, fetched.SubnetIDs)
	}

	duplicateResp, err := s.jsonRequest(t, http.MethodPost, "/networks", map[string]any{
		"cidr":    "10.42.0.0/16",
		"subnets": []map[string]any{{"cidr": "10.42.3.0/24"}},
	})
	if err != nil {
		t.Fatalf("duplicate request: %v", err)
	}
	if duplicateResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate cidr, got %d", duplicateResp.StatusCode)
	}
	var duplicateErr errorResponse
	s.decodeJSON(t, duplicateResp, &duplicateErr)
	if duplicateErr.Error == "" {
		t.Fatal("expected an error message for duplicate cidr")
	}

	listResp, err := s.request(t, http.MethodGet, "/networks", nil)
	if err != nil {
		t.Fatalf("list networks: %v", err)
	}
	var listed listResponse
	s.decodeJSON(t, listResp, &listed)
	found := false
	for _, n := range listed.Networks {
		if n.NetworkID == created.NetworkID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in list, got %+v", created.NetworkID, listed.Networks)
	}

	deleteResp, err := s.request(t, http.MethodDelete, "/networks?network_id="+created.NetworkID, nil)
	if err != nil {
		t.Fatalf("delete network: %v", err)
	}
	if deleteResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting network, got %d", deleteResp.StatusCode)
	}
	var deleted messageResponse
	s.decodeJSON(t, deleteResp, &deleted)
	if deleted.Message != fmt.Sprintf("Network %s and its subnets deleted", created.NetworkID) {
		t.Fatalf("unexpected delete message: %q", deleted.Message)
	}

	missingResp, err := s.request(t, http.MethodGet, "/networks?network_id="+created.NetworkID, nil)
	if err != nil {
		t.Fatalf("get deleted network: %v", err)
	}
	if missingResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missingResp.StatusCode)
	}
	s.closeBody(t, missingResp)
}

func TestFailedCreateRollsBackAndStoresNothing(t *testing.T) {
	s := mustSuite(t)
	before := s.provider.liveCount()

	resp, err := s.jsonRequest(t, http.MethodPost, "/networks", map[string]any{
		"cidr": "10.99.0.0/16",
		"subnets": []map[string]any{
			{"cidr": "10.99.1.0/24"},
			{"cidr": failingSubnet},
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	s.closeBody(t, resp)

	if got := s.provider.liveCount(); got != before {
		t.Fatalf("expected rollback to leave %d live resources, got %d", before, got)
	}

	records, err := appdb.NewNetworkRepository(s.pool).FindByCIDR(context.Background(), "10.99.0.0/16")
	if err != nil {
		t.Fatalf("find by cidr: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no stored record, got %+v", records)
	}
}

func TestDeleteAllEmptiesStore(t *testing.T) {
	s := mustSuite(t)

	for cidr, subnet := range map[string]string{
		"10.50.0.0/16": "10.50.1.0/24",
		"10.51.0.0/16": "10.51.1.0/24",
	} {
		resp, err := s.jsonRequest(t, http.MethodPost, "/networks", map[string]any{
			"cidr":    cidr,
			"subnets": []map[string]any{{"cidr": subnet}},
		})
		if err != nil {
			t.Fatalf("create %s: %v", cidr, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 creating %s, got %d: %s", cidr, resp.StatusCode, s.readBody(t, resp))
		}
		s.closeBody(t, resp)
	}

	resp, err := s.request(t, http.MethodDelete, "/networks", nil)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting all, got %d", resp.StatusCode)
	}
	s.closeBody(t, resp)

	listResp, err := s.request(t, http.MethodGet, "/networks", nil)
	if err != nil {
		t.Fatalf("list networks: %v", err)
	}
	var listed listResponse
	s.decodeJSON(t, listResp, &listed)
	if len(listed.Networks) != 0 {
		t.Fatalf("expected empty store, got %+v", listed.Networks)
	}
	if got := s.provider.liveCount(); got != 0 {
		t.Fatalf("expected no live resources, got %d", got)
	}
}

func TestRepositoryRejectsDuplicateID(t *testing.T) {
	s := mustSuite(t)
	ctx := context.Background()
	repo := appdb.NewNetworkRepository(s.pool)

	record := domain.NetworkRecord{
		NetworkID: "vpc-dup-" + uuid.NewString()[:8],
		CIDR:      "10.60.0.0/16",
		SubnetIDs: []string{"subnet-a"},
		Subnets:   []domain.SubnetSpec{{CIDR: "10.60.1.0/24"}},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, record); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	removed, err := repo.Delete(ctx, record.NetworkID)
	if err != nil || !removed {
		t.Fatalf("expected delete to remove record, got %v %v", removed, err)
	}
	removed, err = repo.Delete(ctx, record.NetworkID)
	if err != nil || removed {
		t.Fatalf("expected second delete to report nothing removed, got %v %v", removed, err)
	}
}

func mustSuite(t *testing.T) *integrationSuite {
	t.Helper()

	suiteOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		suite, suiteErr = newIntegrationSuite(ctx)
	})

	if suiteErr != nil {
		t.Fatalf("integration setup failed: %v", suiteErr)
	}
	if suite == nil {
		t.Fatal("integration suite was not initialized")
	}
	return suite
}

func newIntegrationSuite(ctx context.Context) (*integrationSuite, error) {
	if err := os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true"); err != nil {
		return nil, fmt.Errorf("disable testcontainers ryuk: %w", err)
	}

	s := &integrationSuite{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		provider:   &fakeProvider{live: map[string]bool{}},
	}

	var err error
	s.postgres, err = startPostgres(ctx)
	if err != nil {
		return nil, err
	}

	dsn, err := buildPostgresDSN(ctx, s.postgres)
	if err != nil {
		_ = s.postgres.Terminate(ctx)
		return nil, err
	}

	s.pool, err = appdb.NewPool(ctx, dsn)
	if err != nil {
		_ = s.postgres.Terminate(ctx)
		return nil, err
	}
	if err := appdb.EnsureSchema(ctx, s.pool); err != nil {
		s.pool.Close()
		_ = s.postgres.Terminate(ctx)
		return nil, err
	}

	if err := s.startAPI(ctx); err != nil {
		s.pool.Close()
		_ = s.postgres.Terminate(ctx)
		return nil, err
	}

	return s, nil
}

func (s *integrationSuite) startAPI(ctx context.Context) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for api: %w", err)
	}
	s.baseURL = "http://" + listener.Addr().String()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := appdb.NewNetworkRepository(s.pool)
	service := domain.NewNetworkService(repo, s.provider, domain.WithLogger(logger), domain.WithRollback(true))
	api := apihttp.NewAPI(logger, repo, domain.NewLoggingNetworkService(logger, service))

	s.server = &http.Server{
		Handler:      api.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	s.serveErr = make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	return s.waitForAPIReady(ctx)
}

func (s *integrationSuite) waitForAPIReady(ctx context.Context) error {
	deadline := time.Now().Add(httpReady)
	for time.Now().Before(deadline) {
		select {
		case err := <-s.serveErr:
			return fmt.Errorf("api exited before becoming ready: %w", err)
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err == nil {
			s.closeBodyNoTest(resp)
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for api at %s", s.baseURL)
}

func (s *integrationSuite) Close(ctx context.Context) error {
	var errs []error

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.postgres != nil {
		if err := s.postgres.Terminate(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func startPostgres(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_DB":       "networks",
			"POSTGRES_USER":     "vpc",
			"POSTGRES_PASSWORD": "vpc",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(containerReady),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	return container, nil
}

func buildPostgresDSN(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		return "", fmt.Errorf("postgres mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://vpc:vpc@%s:%s/networks?sslmode=disable", host, port.Port()), nil
}

func (s *integrationSuite) jsonRequest(t *testing.T, method string, path string, payload any) (*http.Response, error) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return s.request(t, method, path, bytes.NewReader(body))
}

func (s *integrationSuite) request(t *testing.T, method string, path string, body io.Reader) (*http.Response, error) {
	t.Helper()

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.httpClient.Do(req)
}

func (s *integrationSuite) decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer s.closeBody(t, resp)

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (s *integrationSuite) readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer s.closeBody(t, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(body)
}

func (s *integrationSuite) closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("close response body: %v", err)
	}
}

func (s *integrationSuite) closeBodyNoTest(resp *http.Response) {
	_ = resp.Body.Close()
}
