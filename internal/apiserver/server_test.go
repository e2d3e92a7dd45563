//go:build unit

package apiserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	authenticationv1 "k8s.io/api/authentication/v1"
	"k8s.io/apimachinery/pkg/runtime"
	fakeclientset "k8s.io/client-go/kubernetes/fake"
	"k8s.io/apiserver/pkg/authentication/serviceaccount"
	k8stesting "k8s.io/client-go/testing"
)

func reviewingClientset(t *testing.T, nodeName string) *fakeclientset.Clientset {
	t.Helper()
	clientset := fakeclientset.NewSimpleClientset()
	clientset.PrependReactor("create", "tokenreviews", func(action k8stesting.Action) (bool, runtime.Object, error) {
		review := action.(k8stesting.CreateAction).GetObject().(*authenticationv1.TokenReview).DeepCopy()
		review.Status = authenticationv1.TokenReviewStatus{
			Authenticated: true,
			User: authenticationv1.UserInfo{
				Username: "system:node:" + nodeName,
				Extra: map[string]authenticationv1.ExtraValue{
					serviceaccount.NodeNameKey: {nodeName},
				},
			},
		}
		return true, review, nil
	})
	return clientset
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	authenticator := NewTokenAuthenticator(reviewingClientset(t, "node-a").AuthenticationV1().TokenReviews())
	handler := authMiddleware(authenticator, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/shadows/node-a", nil)
	req.SetPathValue("name", "node-a")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a bearer token, got %d", rec.Code)
	}
}

func TestAuthMiddleware_AllowsOwnNode(t *testing.T) {
	authenticator := NewTokenAuthenticator(reviewingClientset(t, "node-a").AuthenticationV1().TokenReviews())
	handler := authMiddleware(authenticator, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/shadows/node-a", nil)
	req.SetPathValue("name", "node-a")
	req.Header.Set("Authorization", "Bearer token-for-node-a")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a node acting on its own shadow, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RejectsOtherNode(t *testing.T) {
	authenticator := NewTokenAuthenticator(reviewingClientset(t, "node-a").AuthenticationV1().TokenReviews())
	handler := authMiddleware(authenticator, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/shadows/node-b", nil)
	req.SetPathValue("name", "node-b")
	req.Header.Set("Authorization", "Bearer token-for-node-a")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a node acting on another node's shadow, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MetricsRouteBypassesAuth(t *testing.T) {
	authenticator := NewTokenAuthenticator(reviewingClientset(t, "node-a").AuthenticationV1().TokenReviews())
	handler := authMiddleware(authenticator, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to bypass authentication, got %d", rec.Code)
	}
}

func TestPathLabel_CollapsesWildcardSegments(t *testing.T) {
	cases := map[string]string{
		"/shadows/node-a":        "/shadows/{name}",
		"/shadows/node-a/status": "/shadows/{name}/status",
		"/eviction/node-a":       "/eviction/{node}",
		"/metrics":               "/metrics",
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if got := pathLabel(req); got != want {
			t.Fatalf("pathLabel(%q) = %q, want %q", path, got, want)
		}
	}
}
