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
	"encoding/json"
	"fmt"
	"net/http"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v1 "in-cloud.io/hostupdate/api/v1"
	v2 "in-cloud.io/hostupdate/api/v2"
)

// ConversionHandler serves the CRD's conversion webhook, converting
// HostUpdate objects between v1 (legacy) and v2 (storage) using the
// hub-and-spoke functions in api/v2/conversion.go. kube-apiserver calls
// this endpoint whenever a client requests a version other than the
// storage version, so this file never itself decides which version a
// caller sees: it only answers kube-apiserver's own translation requests.
type ConversionHandler struct{}

// ServeHTTP implements the conversion webhook contract: decode a
// ConversionReview, convert every object in the request to the requested
// version, and return a ConversionReview with the results.
func (h *ConversionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	var review apiextensionsv1.ConversionReview
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, "decoding conversion review")
		return
	}

	response := &apiextensionsv1.ConversionResponse{
		UID:    review.Request.UID,
		Result: metav1.Status{Status: metav1.StatusSuccess},
	}

	converted := make([]runtime.RawExtension, 0, len(review.Request.Objects))
	for _, obj := range review.Request.Objects {
		out, err := convertObject(obj.Raw, review.Request.DesiredAPIVersion)
		if err != nil {
			logger.Error(err, "converting object")
			response.Result = metav1.Status{Status: metav1.StatusFailure, Message: err.Error()}
			converted = nil
			break
		}
		converted = append(converted, runtime.RawExtension{Raw: out})
	}
	response.ConvertedObjects = converted

	review.Response = response
	review.Request = nil

	writeJSON(w, http.StatusOK, &review)
}

func convertObject(raw []byte, desiredAPIVersion string) ([]byte, error) {
	var probe struct {
		APIVersion string `json:"apiVersion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("probing apiVersion: %w", err)
	}

	switch {
	case probe.APIVersion == desiredAPIVersion:
		return raw, nil

	case desiredAPIVersion == v2.GroupVersion.String():
		var in v1.HostUpdate
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("decoding v1 object: %w", err)
		}
		out, err := v2.FromV1(&in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)

	case desiredAPIVersion == v1.GroupVersion.String():
		var in v2.HostUpdate
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("decoding v2 object: %w", err)
		}
		out, err := v2.ToV1(&in)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)

	default:
		return nil, fmt.Errorf("unsupported conversion target %q", desiredAPIVersion)
	}
}
