// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taint

import (
	"strconv"

	"github.com/awslabs/ar-wasm-taint/analysis/config"
)

// identifier converts a call target into the function identifier matched
// against the source and sink specifications of the config. A target that
// matches no specification is neutral: its call is handled by the normal
// frame protocol with no policy action.
func (t CallTarget) identifier() config.FuncIdentifier {
	return config.FuncIdentifier{
		Module:   t.Module,
		Function: t.Name,
		Index:    strconv.FormatUint(uint64(t.Index), 10),
	}
}
