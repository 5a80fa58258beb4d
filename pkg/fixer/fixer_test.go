package fixer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/completion"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fileaccess"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/optimizer"
)

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) Locate(relativePath string) fileaccess.Location {
	args := m.Called(relativePath)
	return args.Get(0).(fileaccess.Location)
}

func (m *mockFiles) Read(absolutePath string) (string, error) {
	args := m.Called(absolutePath)
	return args.String(0), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, bugDescription, code, filePath string) completion.Result {
	args := m.Called(ctx, bugDescription, code, filePath)
	return args.Get(0).(completion.Result)
}

func newService(files Files, completer Completer) *Service {
	return New(files, completer, optimizer.DefaultMaxChars, nil, zerolog.Nop())
}

func TestFixCode_Success(t *testing.T) {
	files := &mockFiles{}
	completer := &mockCompleter{}

	files.On("Locate", "src/Foo.kt").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/src/Foo.kt"})
	files.On("Read", "/root/src/Foo.kt").Return("import a.B\n\nfun foo() = 1 - 1 // wrong\n", nil)
	completer.On("Complete", mock.Anything, "foo returns 0", "fun foo() = 1 - 1", "src/Foo.kt").
		Return(completion.Result{Text: "fun foo() = 1 + 1"})

	out := newService(files, completer).FixCode(context.Background(), Request{
		FilePath:       "src/Foo.kt",
		BugDescription: "foo returns 0",
	})

	require.True(t, out.OK(), "unexpected failure: %+v", out.Failure)
	assert.Equal(t, "fun foo() = 1 + 1", out.FixedCode)
	files.AssertExpectations(t)
	completer.AssertExpectations(t)
}

func TestFixCode_InvalidInputNeverTouchesFiles(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantDetail string
	}{
		{
			name:       "empty path",
			req:        Request{FilePath: "", BugDescription: "bug"},
			wantDetail: "File path cannot be empty",
		},
		{
			name:       "whitespace path",
			req:        Request{FilePath: " \t\n", BugDescription: "bug"},
			wantDetail: "File path cannot be empty",
		},
		{
			name:       "empty description",
			req:        Request{FilePath: "src/Foo.kt", BugDescription: ""},
			wantDetail: "Bug description cannot be empty",
		},
		{
			name:       "whitespace description",
			req:        Request{FilePath: "src/Foo.kt", BugDescription: "   "},
			wantDetail: "Bug description cannot be empty",
		},
		{
			name:       "both blank",
			req:        Request{},
			wantDetail: "File path cannot be empty; Bug description cannot be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &mockFiles{}
			completer := &mockCompleter{}

			out := newService(files, completer).FixCode(context.Background(), tt.req)

			require.False(t, out.OK())
			assert.Equal(t, InvalidInput, out.Failure.Reason)
			assert.Equal(t, tt.wantDetail, out.Failure.Detail)
			files.AssertNotCalled(t, "Locate", mock.Anything)
			files.AssertNotCalled(t, "Read", mock.Anything)
			completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFixCode_LocateFailuresMapToFileNotFound(t *testing.T) {
	statuses := []fileaccess.Status{
		fileaccess.NotFound,
		fileaccess.NotAFile,
		fileaccess.OutsideRoot,
		fileaccess.Ignored,
	}
	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			files := &mockFiles{}
			completer := &mockCompleter{}
			files.On("Locate", "missing.txt").Return(fileaccess.Location{Status: status})

			out := newService(files, completer).FixCode(context.Background(), Request{
				FilePath:       "missing.txt",
				BugDescription: "bug",
			})

			require.False(t, out.OK())
			assert.Equal(t, FileNotFound, out.Failure.Reason)
			assert.Equal(t, "File not found: missing.txt", out.Failure.Detail)
			files.AssertNotCalled(t, "Read", mock.Anything)
			completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFixCode_ReadFailure(t *testing.T) {
	files := &mockFiles{}
	completer := &mockCompleter{}
	files.On("Locate", "bin.dat").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/bin.dat"})
	files.On("Read", "/root/bin.dat").Return("", fileaccess.ErrInvalidUTF8)

	out := newService(files, completer).FixCode(context.Background(), Request{
		FilePath:       "bin.dat",
		BugDescription: "bug",
	})

	require.False(t, out.OK())
	assert.Equal(t, FileReadFailed, out.Failure.Reason)
	assert.Equal(t, "Failed to read file: bin.dat", out.Failure.Detail)
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFixCode_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure completion.Failure
	}{
		{name: "transport", failure: completion.Failure{Kind: completion.Transport, Detail: "completion request timed out", Timeout: true}},
		{name: "provider error", failure: completion.Failure{Kind: completion.ProviderError, Detail: "completion provider returned HTTP 500"}},
		{name: "no alternatives", failure: completion.Failure{Kind: completion.EmptyResult, Detail: "no alternatives"}},
		{name: "blank fix", failure: completion.Failure{Kind: completion.EmptyResult, Detail: "blank fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &mockFiles{}
			completer := &mockCompleter{}
			files.On("Locate", "a.go").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/a.go"})
			files.On("Read", "/root/a.go").Return("package a\n", nil)
			failure := tt.failure
			completer.On("Complete", mock.Anything, "bug", "package a", "a.go").Return(completion.Result{Failure: &failure})

			out := newService(files, completer).FixCode(context.Background(), Request{FilePath: "a.go", BugDescription: "bug"})

			require.False(t, out.OK())
			assert.Equal(t, UpstreamFailed, out.Failure.Reason)
			assert.Equal(t, tt.failure.Kind, out.Failure.Upstream)
			assert.Equal(t, tt.failure.Timeout, out.Failure.Timeout)
			assert.True(t, strings.HasSuffix(out.Failure.Detail, tt.failure.Detail))
		})
	}
}

func TestFixCode_PanicBecomesInternalError(t *testing.T) {
	files := &mockFiles{}
	completer := &mockCompleter{}
	files.On("Locate", "a.go").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/a.go"})
	files.On("Read", "/root/a.go").Return("package a\n", nil)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("connection pool exploded at 0xdeadbeef") })

	out := newService(files, completer).FixCode(context.Background(), Request{FilePath: "a.go", BugDescription: "bug"})

	require.False(t, out.OK())
	assert.Equal(t, InternalError, out.Failure.Reason)
	assert.Equal(t, InternalErrorMessage, out.Failure.Detail)
	assert.NotContains(t, out.Failure.Detail, "deadbeef")
}

func TestFixCode_LogsFinalStage(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		status    fileaccess.Status
		result    completion.Result
		wantMsg   string
		wantStage Stage
	}{
		{
			name:      "success",
			req:       Request{FilePath: "a.go", BugDescription: "bug"},
			status:    fileaccess.Found,
			result:    completion.Result{Text: "fixed"},
			wantMsg:   "Code successfully fixed",
			wantStage: StageDone,
		},
		{
			name:      "invalid input",
			req:       Request{FilePath: "a.go"},
			wantMsg:   "Fix request failed",
			wantStage: StageValidating,
		},
		{
			name:      "missing file",
			req:       Request{FilePath: "a.go", BugDescription: "bug"},
			status:    fileaccess.NotFound,
			wantMsg:   "Fix request failed",
			wantStage: StageLocating,
		},
		{
			name:      "upstream failure",
			req:       Request{FilePath: "a.go", BugDescription: "bug"},
			status:    fileaccess.Found,
			result:    completion.Result{Failure: &completion.Failure{Kind: completion.EmptyResult, Detail: "no alternatives"}},
			wantMsg:   "Fix request failed",
			wantStage: StageCompleting,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &mockFiles{}
			completer := &mockCompleter{}
			files.On("Locate", "a.go").Return(fileaccess.Location{Status: tt.status, Path: "/root/a.go"})
			files.On("Read", "/root/a.go").Return("package a\n", nil)
			completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.result)

			var buf bytes.Buffer
			svc := New(files, completer, optimizer.DefaultMaxChars, nil, zerolog.New(&buf))
			svc.FixCode(context.Background(), tt.req)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var last map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
			assert.Equal(t, tt.wantMsg, last["message"])
			assert.Equal(t, string(tt.wantStage), last["stage"])
		})
	}
}

func TestFixCode_SendsOptimizedSource(t *testing.T) {
	long := strings.Repeat("x", optimizer.DefaultMaxChars+500)
	files := &mockFiles{}
	completer := &mockCompleter{}
	files.On("Locate", "big.txt").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/big.txt"})
	files.On("Read", "/root/big.txt").Return(long, nil)
	completer.On("Complete", mock.Anything, "bug", mock.MatchedBy(func(code string) bool {
		return code == long[:optimizer.DefaultMaxChars]+optimizer.TruncationMarker
	}), "big.txt").Return(completion.Result{Text: "fixed"})

	out := newService(files, completer).FixCode(context.Background(), Request{FilePath: "big.txt", BugDescription: "bug"})

	require.True(t, out.OK())
	completer.AssertExpectations(t)
}

func TestFixCode_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	files := &mockFiles{}
	completer := &mockCompleter{}
	files.On("Locate", "a.go").Return(fileaccess.Location{Status: fileaccess.Found, Path: "/root/a.go"})
	files.On("Locate", "b.go").Return(fileaccess.Location{Status: fileaccess.NotFound})
	files.On("Read", "/root/a.go").Return("package a\n", nil)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(completion.Result{Failure: &completion.Failure{Kind: completion.EmptyResult, Detail: "no alternatives"}})

	svc := New(files, completer, optimizer.DefaultMaxChars, NewMetrics(reg), zerolog.Nop())
	svc.FixCode(context.Background(), Request{FilePath: "a.go", BugDescription: "bug"})
	svc.FixCode(context.Background(), Request{FilePath: "b.go", BugDescription: "bug"})

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			for _, lp := range m.GetLabel() {
				counts[mf.GetName()+"/"+lp.GetValue()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, counts["codefixer_fix_requests_total/upstream_failed"])
	assert.Equal(t, 1.0, counts["codefixer_fix_requests_total/file_not_found"])
	assert.Equal(t, 1.0, counts["codefixer_upstream_failures_total/empty_result"])
}

// The scenarios below run the real accessor and client against a fake provider.

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func providerReturning(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newIntegrationService(t *testing.T, root, baseURL string) *Service {
	t.Helper()
	files, err := fileaccess.New(root, fileaccess.Options{}, zerolog.Nop())
	require.NoError(t, err)
	client, err := completion.New(completion.Options{
		BaseURL:        baseURL,
		APIKey:         "key",
		ModelURI:       "gpt://folder/yandexgpt-lite",
		Temperature:    0.6,
		MaxTokens:      2000,
		ConnectTimeout: time.Second,
		RequestTimeout: 5 * time.Second,
		IdleTimeout:    5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(files, client, optimizer.DefaultMaxChars, NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
}

func alternativeJSON(text string) string {
	return fmt.Sprintf(`{"result":{"alternatives":[{"message":{"role":"assistant","text":%q}}]}}`, text)
}

func TestScenarios(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/Foo.kt", "fun foo(): Int {\n    return 1 - 1\n}\n")
	fixed := "fun foo(): Int {\n    return 1 + 1\n}"

	t.Run("A: existing file is fixed", func(t *testing.T) {
		server := providerReturning(t, alternativeJSON(fixed))
		out := newIntegrationService(t, root, server.URL).FixCode(context.Background(), Request{
			FilePath:       "src/Foo.kt",
			BugDescription: "foo should return 2",
		})
		require.True(t, out.OK(), "unexpected failure: %+v", out.Failure)
		assert.Equal(t, fixed, out.FixedCode)
	})

	t.Run("B: missing file", func(t *testing.T) {
		server := providerReturning(t, alternativeJSON(fixed))
		out := newIntegrationService(t, root, server.URL).FixCode(context.Background(), Request{
			FilePath:       "missing.txt",
			BugDescription: "bug",
		})
		require.False(t, out.OK())
		assert.Equal(t, FileNotFound, out.Failure.Reason)
	})

	t.Run("C: blank description", func(t *testing.T) {
		server := providerReturning(t, alternativeJSON(fixed))
		out := newIntegrationService(t, root, server.URL).FixCode(context.Background(), Request{
			FilePath:       "src/Foo.kt",
			BugDescription: "",
		})
		require.False(t, out.OK())
		assert.Equal(t, InvalidInput, out.Failure.Reason)
	})

	t.Run("D: zero alternatives", func(t *testing.T) {
		server := providerReturning(t, `{"result":{"alternatives":[]}}`)
		out := newIntegrationService(t, root, server.URL).FixCode(context.Background(), Request{
			FilePath:       "src/Foo.kt",
			BugDescription: "bug",
		})
		require.False(t, out.OK())
		assert.Equal(t, UpstreamFailed, out.Failure.Reason)
		assert.Equal(t, completion.EmptyResult, out.Failure.Upstream)
	})

	t.Run("traversal is reported as missing", func(t *testing.T) {
		server := providerReturning(t, alternativeJSON(fixed))
		out := newIntegrationService(t, root, server.URL).FixCode(context.Background(), Request{
			FilePath:       "../../etc/passwd",
			BugDescription: "bug",
		})
		require.False(t, out.OK())
		assert.Equal(t, FileNotFound, out.Failure.Reason)
	})
}
