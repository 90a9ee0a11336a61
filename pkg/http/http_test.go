package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	resourcefilter "github.com/joshmeranda/resourcefilter/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"
)

const TestWaitDuration = time.Second * 5

// GetFreePort asks the kernel for a free open port that is ready to use.
func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func setupServerTest(t *testing.T, config *resourcefilter.Config) (func(), Client) {
	gin.SetMode(gin.TestMode)

	logFilePath := path.Join(t.TempDir(), "resourcefilter.log")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free ports: %s", err)
	}

	logger := resourcefilter.NewLogger(resourcefilter.WithPaths(logFilePath))

	requestAddr := fmt.Sprintf("http://127.0.0.1:%d", port)
	listenAddr := fmt.Sprintf(":%d", port)

	server, err := NewServer(ServerOptions{
		Logger:  logger.Named("server"),
		Address: listenAddr,
		Context: context.Background(),
		Config:  config,
	})
	if err != nil {
		t.Fatalf("could not create server: %s", err)
	}

	if err := server.Start(); err != nil {
		t.Fatalf("could not start sever: %s", err)
	}

	u, err := url.Parse(requestAddr)
	if err != nil {
		t.Fatalf("cannot parse address '%s': %s", requestAddr, err)
	}

	opts := ClientOptions{
		Address: *u,
		Logger:  logger.Named("client"),
	}
	client, err := NewHttpClient(opts)
	if err != nil {
		t.Fatalf("could not create client: %s", err)
	}

	waitForHealthy(t, context.Background(), client)

	teardown := func() {
		_ = server.Shutdown()
	}

	return teardown, client
}

func waitForHealthy(t *testing.T, ctx context.Context, client Client) {
	ctx, cancel := context.WithTimeout(ctx, TestWaitDuration)
	defer cancel()

	healthy := false

	wait.UntilWithContext(ctx, func(ctx context.Context) {
		ok, err := client.Health(HealthRequest{})

		if err == nil && ok {
			healthy = true
			cancel()
		}
	}, 0)

	if !healthy {
		t.Fatalf("failed waiting for server to be healthy")
	}
}

func records() []any {
	return []any{
		map[string]any{
			"name":     "frontend",
			"replicas": 3,
			"labels":   map[string]any{"tier": "web"},
		},
		map[string]any{
			"name":     "backend",
			"replicas": 1,
			"labels":   map[string]any{"tier": "api"},
		},
		map[string]any{
			"name":     "cache",
			"replicas": 2,
			"labels":   map[string]any{"tier": "api"},
		},
	}
}

func names(records []any) []string {
	result := make([]string, len(records))
	for i, record := range records {
		result[i], _ = record.(map[string]any)["name"].(string)
	}

	return result
}

func TestServerHealth(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	healthy, err := client.Health(HealthRequest{})
	assert.NoError(t, err)
	assert.True(t, healthy)
}

func TestServerFilter(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	response, err := client.Filter(FilterRequest{
		Filter:  "labels.tier=api AND replicas>=2",
		Records: records(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, response.ID)
	assert.Equal(t, []int{2}, response.Matches)
	assert.Equal(t, []string{"cache"}, names(response.Records))
	assert.Empty(t, response.Warnings)
}

func TestServerFilterEmpty(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	response, err := client.Filter(FilterRequest{
		Records: records(),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, response.Matches)
}

func TestServerFilterUniqueIDs(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	first, err := client.Filter(FilterRequest{Filter: "name:cache", Records: records()})
	require.NoError(t, err)

	second, err := client.Filter(FilterRequest{Filter: "name:cache", Records: records()})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestServerFilterWarnings(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	response, err := client.Filter(FilterRequest{
		Filter:  "name:ront",
		Records: records(),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, response.Matches)
	require.Len(t, response.Warnings, 1)
	assert.Contains(t, response.Warnings[0], "--filter : operator evaluation is changing for consistency across Google APIs.")
}

func TestServerFilterValue(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	response, err := client.Filter(FilterRequest{
		Filter:  "len()",
		Records: append(records(), map[string]any{"name": "sidecar"}),
		Value:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, []any{int64(3), int64(3), int64(3), int64(1)}, response.Values)
	assert.Empty(t, response.Matches)
}

func TestServerFilterAliases(t *testing.T) {
	config := resourcefilter.DefaultConfig()
	config.Aliases = map[string]string{"tier": "labels.tier"}

	teardown, client := setupServerTest(t, config)
	defer teardown()

	response, err := client.Filter(FilterRequest{
		Filter:  "tier:web",
		Records: records(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"frontend"}, names(response.Records))
}

func TestServerFilterSyntaxError(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	_, err := client.Filter(FilterRequest{
		Filter:  "name:foo AND (",
		Records: records(),
	})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 400, statusErr.Code)
	assert.True(t, strings.HasSuffix(statusErr.Message, "[name:foo AND ( *HERE* ]."), statusErr.Message)
}

func TestServerFilterTransformError(t *testing.T) {
	teardown, client := setupServerTest(t, nil)
	defer teardown()

	_, err := client.Filter(FilterRequest{
		Filter:  "error(2)",
		Records: records(),
	})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 422, statusErr.Code)
	assert.Equal(t, "could not apply transform error(): 2", statusErr.Message)
}
