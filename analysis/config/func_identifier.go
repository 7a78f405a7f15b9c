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

package config

import (
	"regexp"
	"strconv"

	"github.com/awslabs/ar-wasm-taint/internal/funcutil"
)

// A FuncIdentifier identifies a call target that is a source or a sink.
// A function can be identified by its module, its name, its numeric index in
// the module function space, or any combination of those. Which combination
// is the stable one depends on how the host resolves call targets, so the
// choice is left entirely to the config file.
type FuncIdentifier struct {
	// Module is the name of the module the function belongs to
	Module string `yaml:"module"`

	// Function is the name of the function, when the host knows it (export or
	// debug name)
	Function string `yaml:"function"`

	// Index is the numeric index of the function, written as a string so that
	// an absent field is distinguishable from index 0
	Index string `yaml:"index"`

	// This will not be part of the yaml config
	computed *funcIdentifierMatchers
}

type funcIdentifierMatchers struct {
	moduleRegex   *regexp.Regexp
	functionRegex *regexp.Regexp
	index         *uint32
}

// compileMatchers compiles the strings in the identifier into regexes, and
// the index into a number. It compiles all matchers or none.
func compileMatchers(fid FuncIdentifier) FuncIdentifier {
	moduleRegex, err := regexp.Compile(fid.Module)
	if err != nil {
		return fid
	}
	functionRegex, err := regexp.Compile(fid.Function)
	if err != nil {
		return fid
	}
	var index *uint32
	if fid.Index != "" {
		n, err := strconv.ParseUint(fid.Index, 10, 32)
		if err != nil {
			return fid
		}
		i := uint32(n)
		index = &i
	}
	fid.computed = &funcIdentifierMatchers{
		moduleRegex:   moduleRegex,
		functionRegex: functionRegex,
		index:         index,
	}
	return fid
}

// equalOnNonEmptyFields returns true if each of the receiver's fields is
// either matched by the corresponding argument's field, or the argument's
// field is empty
func (fid *FuncIdentifier) equalOnNonEmptyFields(fidRef FuncIdentifier) bool {
	if fidRef.computed != nil {
		return (fidRef.computed.moduleRegex.MatchString(fid.Module) || fidRef.Module == "") &&
			(fidRef.computed.functionRegex.MatchString(fid.Function) || fidRef.Function == "") &&
			(fidRef.computed.index == nil || strconv.FormatUint(uint64(*fidRef.computed.index), 10) == fid.Index)
	}
	return ((fid.Module == fidRef.Module) || (fidRef.Module == "")) &&
		((fid.Function == fidRef.Function) || (fidRef.Function == "")) &&
		((fid.Index == fidRef.Index) || (fidRef.Index == ""))
}

// ExistsFid is true if there is some x in a such that f(x) is true.
// O(len(a))
func ExistsFid(a []FuncIdentifier, f func(identifier FuncIdentifier) bool) bool {
	return funcutil.Exists(a, f)
}
