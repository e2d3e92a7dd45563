// Package mocks is intentionally empty: internal/apiserver depends only on
// sigs.k8s.io/controller-runtime/pkg/client.Client and client-go's
// TokenReviewInterface, both of which already have first-class fakes
// (sigs.k8s.io/controller-runtime/pkg/client/fake and
// k8s.io/client-go/kubernetes/fake) that this package's tests use directly.
// Hand-written gomock mocks, as internal/agent/mocks carries for its
// bespoke HostAPI/ShadowGetter interfaces, would only duplicate what those
// fakes already give us.
package mocks
