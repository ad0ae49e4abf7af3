// Copyright 2024 Nokia
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

package rpc

import "github.com/beevik/etree"

// EditOperation is the value of the operation attribute in edit-config payloads.
type EditOperation string

const (
	OperationMerge   EditOperation = "merge"
	OperationReplace EditOperation = "replace"
	OperationCreate  EditOperation = "create"
	// OperationDelete fails with data-missing when the data does not exist.
	OperationDelete EditOperation = "delete"
	// OperationRemove is silently ignored by conforming servers when the data does not exist.
	OperationRemove EditOperation = "remove"
)

// AddOperation marks elem with the nc:operation attribute and declares the
// nc prefix on elem itself, so the element can be placed anywhere in a payload.
func AddOperation(elem *etree.Element, op EditOperation) {
	elem.CreateAttr("xmlns:nc", NcBase1_0)
	elem.CreateAttr("nc:operation", string(op))
}
