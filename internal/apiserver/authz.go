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
	authenticationv1 "k8s.io/api/authentication/v1"
	"k8s.io/apiserver/pkg/authentication/serviceaccount"
)

// authorizedForNode reports whether an authenticated caller may act on the
// shadow named nodeName. An agent authenticates with its kubelet-bound
// service account token, which the API server stamps with a
// node-name "extra" claim (the same mechanism node restriction admission
// relies on); a caller may only touch the shadow whose name matches that
// claim, so one compromised agent can never write another host's state.
func authorizedForNode(user authenticationv1.UserInfo, nodeName string) bool {
	if nodeName == "" {
		return false
	}
	extra, ok := user.Extra[serviceaccount.NodeNameKey]
	if !ok {
		return false
	}
	for _, name := range extra {
		if name == nodeName {
			return true
		}
	}
	return false
}
