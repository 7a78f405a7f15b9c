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

/*
Package config manages the configuration of the taint tracker.

Use [Load](filename) to load a configuration from a specific filename.

A config file is in yaml format. The top-level fields can be any of the fields
defined in the [Config] struct type. For example, a valid config file is as
follows:

	log-level: 4
	taint-tracking-problems:
	    - sources:
	        - function: getenv
	      sinks:
	        - function: send
	        - index: "12"

# Identifying functions

The config uses [FuncIdentifier] to identify call targets. Sources and sinks
are FuncIdentifiers, which match a function by its module name, its name
and/or its numeric index in the module's function space. The string
specifications are seen as regexes if they can be compiled to regexes,
otherwise they are compared as plain strings. An empty field matches anything,
so identifying by name only or by index only are both valid.
*/
package config
