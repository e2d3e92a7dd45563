/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apiserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	authenticationv1 "k8s.io/api/authentication/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	authenticationv1client "k8s.io/client-go/kubernetes/typed/authentication/v1"
)

// tokenReviewCacheTTL bounds how long an authenticated token is trusted
// without a fresh TokenReview round trip. Short enough that a revoked
// token is rejected within one agent poll interval, long enough that a
// busy agent isn't reviewing its own token on every request.
const tokenReviewCacheTTL = 10 * time.Second

// errNotAuthenticated is returned when the API server itself rejects the
// token (as opposed to a transport error talking to the TokenReview API).
var errNotAuthenticated = errors.New("token review: token not authenticated")

type cachedAuthResult struct {
	user   authenticationv1.UserInfo
	expiry time.Time
}

// TokenAuthenticator authenticates bearer tokens via the TokenReview
// subresource, caching successful reviews by token hash so that repeat
// requests from the same agent don't each cost a round trip to the
// cluster's authentication API.
type TokenAuthenticator struct {
	reviews authenticationv1client.TokenReviewInterface

	mu    sync.Mutex
	cache map[string]cachedAuthResult
}

// NewTokenAuthenticator builds an authenticator backed by reviews, typically
// clientset.AuthenticationV1().TokenReviews().
func NewTokenAuthenticator(reviews authenticationv1client.TokenReviewInterface) *TokenAuthenticator {
	return &TokenAuthenticator{
		reviews: reviews,
		cache:   make(map[string]cachedAuthResult),
	}
}

// hashToken never stores the raw bearer token, only a digest, so that a
// dump of authenticator state (a heap profile, a panic log) doesn't leak
// credentials.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authenticate returns the UserInfo a bearer token reviews as, consulting
// the cache before falling back to a live TokenReview call.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (authenticationv1.UserInfo, error) {
	key := hashToken(token)

	a.mu.Lock()
	cached, ok := a.cache[key]
	a.mu.Unlock()
	if ok && time.Now().Before(cached.expiry) {
		return cached.user, nil
	}

	review := &authenticationv1.TokenReview{
		Spec: authenticationv1.TokenReviewSpec{Token: token},
	}
	result, err := a.reviews.Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return authenticationv1.UserInfo{}, err
	}
	if !result.Status.Authenticated {
		a.mu.Lock()
		delete(a.cache, key)
		a.mu.Unlock()
		return authenticationv1.UserInfo{}, errNotAuthenticated
	}

	a.mu.Lock()
	a.cache[key] = cachedAuthResult{user: result.Status.User, expiry: time.Now().Add(tokenReviewCacheTTL)}
	a.mu.Unlock()

	return result.Status.User, nil
}
