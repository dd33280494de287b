package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postnoti/mailroom-worker/internal/imaging"
)

// recognizerFunc adapts a function to the Recognizer interface.
type recognizerFunc func(ctx context.Context, image []byte, hints []string) (Recognition, error)

func (f recognizerFunc) Recognize(ctx context.Context, image []byte, hints []string) (Recognition, error) {
	return f(ctx, image, hints)
}

// linesRecognizer fabricates recognizer output from fixed text lines, running
// the same sender extraction a real backend runs.
func linesRecognizer(lines []string) Recognizer {
	return recognizerFunc(func(ctx context.Context, image []byte, hints []string) (Recognition, error) {
		text := strings.Join(lines, "\n")
		return Recognition{
			Text:   text,
			Sender: ExtractSender(SplitLines(text), hints),
		}, nil
	})
}

func newTestResolver(rec Recognizer) *Resolver {
	return NewResolver(rec, imaging.NewNormalizer(1000, 70))
}

func TestResolveEndToEnd(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", CompanyName: "대성", RoomNumber: "710", IsActive: true},
	}
	knownSenders := []string{"국민건강보험"}
	lines := []string{"대성", "710호 홍길동님", "국민건강보험공단"}

	resolver := newTestResolver(linesRecognizer(lines))
	result, normalized, err := resolver.Resolve(context.Background(), []byte("not-an-image"), knownSenders, roster)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, normalized)

	assert.Equal(t, CategoryInsurance, result.Category)
	// Known-sender extraction returns the curated keyword itself.
	assert.Equal(t, "국민건강보험", result.Sender)
	require.NotNil(t, result.MatchedTenant)
	assert.Equal(t, "p1", result.MatchedTenant.ID)
}

func TestResolveSenderTrustGate(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", CompanyName: "대성", RoomNumber: "710", IsActive: true},
	}

	testCases := []struct {
		name         string
		sender       string
		knownSenders []string
		want         string
	}{
		{
			name:         "superstring of a known sender is trusted",
			sender:       "국민건강보험공단",
			knownSenders: []string{"국민건강보험"},
			want:         "국민건강보험공단",
		},
		{
			name:         "substring of a known sender is trusted",
			sender:       "건강보험",
			knownSenders: []string{"국민건강보험공단"},
			want:         "건강보험",
		},
		{
			name:         "unknown sender is blanked",
			sender:       "이상한발신처",
			knownSenders: []string{"국민건강보험"},
			want:         "",
		},
		{
			name:         "empty known-sender list blanks everything",
			sender:       "국민건강보험공단",
			knownSenders: nil,
			want:         "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := recognizerFunc(func(ctx context.Context, image []byte, hints []string) (Recognition, error) {
				return Recognition{Text: "안내문", Sender: tc.sender}, nil
			})
			result, _, err := newTestResolver(rec).Resolve(context.Background(), []byte("x"), tc.knownSenders, roster)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Sender)
		})
	}
}

// A matched tenant's own identity is stripped out of the surfaced sender.
func TestResolveStripsMatchedTenantFromSender(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", CompanyName: "대성물산", RoomNumber: "710", IsActive: true},
	}
	rec := recognizerFunc(func(ctx context.Context, image []byte, hints []string) (Recognition, error) {
		return Recognition{
			Text:   "710호 홍길동님\n안내문",
			Sender: "대성물산 관리단",
		}, nil
	})

	result, _, err := newTestResolver(rec).Resolve(context.Background(), []byte("x"), []string{"관리단"}, roster)
	require.NoError(t, err)
	require.NotNil(t, result.MatchedTenant)
	assert.Equal(t, "관리단", result.Sender)
}

func TestResolveEmptyRecognitionIsNoSignal(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", IsActive: true},
	}
	rec := recognizerFunc(func(ctx context.Context, image []byte, hints []string) (Recognition, error) {
		return Recognition{}, nil
	})

	result, normalized, err := newTestResolver(rec).Resolve(context.Background(), []byte("x"), []string{"국민건강보험"}, roster)
	require.NoError(t, err)
	require.NotNil(t, normalized)

	assert.Equal(t, CategoryGeneral, result.Category)
	assert.Empty(t, result.Sender)
	assert.Nil(t, result.MatchedTenant)
}

func TestResolveRecognizerErrorPropagates(t *testing.T) {
	rec := recognizerFunc(func(ctx context.Context, image []byte, hints []string) (Recognition, error) {
		return Recognition{}, errors.New("camera gremlins")
	})

	result, _, err := newTestResolver(rec).Resolve(context.Background(), []byte("x"), nil, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "RECOGNITION_FAILED")
}

func TestResolveRejectsMalformedRoster(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", IsActive: true},
		{ID: "p2", Name: "   "},
	}

	_, _, err := newTestResolver(linesRecognizer([]string{"안내문"})).Resolve(context.Background(), []byte("x"), nil, roster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_ROSTER")
}

// Two runs over identical inputs produce identical results.
func TestResolveIsIdempotent(t *testing.T) {
	roster := []TenantProfile{
		{ID: "p1", Name: "홍길동", CompanyName: "대성", RoomNumber: "710", IsActive: true},
	}
	knownSenders := []string{"국민건강보험"}
	lines := []string{"대성", "710호 홍길동님", "국민건강보험공단"}
	resolver := newTestResolver(linesRecognizer(lines))

	first, _, err := resolver.Resolve(context.Background(), []byte("x"), knownSenders, roster)
	require.NoError(t, err)
	second, _, err := resolver.Resolve(context.Background(), []byte("x"), knownSenders, roster)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
