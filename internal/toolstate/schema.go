/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package toolstate

import (
	"encoding/json"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// documentSchema validates the wire form of an options document before it is
// unmarshalled. Validation happens once at the boundary; everything past
// Parse trusts the typed Document.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": true,
  "properties": {
    "layoutRev": {"type": "string"},
    "opacity": {"$ref": "#/definitions/numeric"},
    "scale": {"$ref": "#/definitions/numeric"},
    "rotation": {"$ref": "#/definitions/numeric"},
    "textureBrushSize": {"$ref": "#/definitions/numeric"},
    "textureBrushOpacity": {"$ref": "#/definitions/numeric"},
    "textureBrushSmoothing": {"$ref": "#/definitions/numeric"},
    "scatterDensity": {"$ref": "#/definitions/numeric"},
    "scatterJitter": {"$ref": "#/definitions/numeric"},
    "heightBrush": {"$ref": "#/definitions/numeric"},
    "pathShadowScale": {"$ref": "#/definitions/numeric"},
    "pathShadowOpacity": {"$ref": "#/definitions/numeric"},
    "elevation": {"$ref": "#/definitions/numeric"},
    "sortHeight": {"$ref": "#/definitions/numeric"},
    "flipH": {"$ref": "#/definitions/toggle"},
    "flipV": {"$ref": "#/definitions/toggle"},
    "lockRotation": {"$ref": "#/definitions/toggle"},
    "randomizeRotation": {"$ref": "#/definitions/toggle"},
    "offset": {"$ref": "#/definitions/axisPair"},
    "pathFeather": {"$ref": "#/definitions/axisPair"},
    "opacityFeather": {"$ref": "#/definitions/axisPair"},
    "heightMapRange": {"$ref": "#/definitions/axisPair"},
    "pathShadowPreset": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "active": {"type": "string"},
        "presets": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id"],
            "properties": {
              "id": {"type": "string"},
              "label": {"type": "string"}
            }
          }
        }
      }
    },
    "doorFixture": {"$ref": "#/definitions/fixture"},
    "windowFixture": {"$ref": "#/definitions/fixture"},
    "placeAsName": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "name": {"type": "string"},
        "placeholder": {"type": "string"},
        "counterEnabled": {"type": "boolean"}
      }
    },
    "dropShadow": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "enabled": {"type": "boolean"},
        "maxRadius": {"type": "number", "minimum": 0},
        "offset": {
          "type": "object",
          "properties": {
            "distance": {"type": "number"},
            "angle": {"type": "number"}
          }
        }
      }
    },
    "customToggles": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "items": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id"],
            "properties": {
              "id": {"type": "string"},
              "label": {"type": "string"},
              "tooltip": {"type": "string"},
              "enabled": {"type": "boolean"},
              "disabled": {"type": "boolean"}
            }
          }
        }
      }
    }
  },
  "definitions": {
    "scalarFields": {
      "min": {"type": "number"},
      "max": {"type": "number"},
      "step": {"type": "number"},
      "value": {"type": "number"},
      "display": {"type": "string"}
    },
    "numeric": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "min": {"type": "number"},
        "max": {"type": "number"},
        "step": {"type": "number"},
        "value": {"type": "number"},
        "display": {"type": "string"},
        "defaultValue": {"type": "number"}
      }
    },
    "toggle": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "enabled": {"type": "boolean"},
        "label": {"type": "string"},
        "tooltip": {"type": "string"}
      }
    },
    "axisPair": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "firstLabel": {"type": "string"},
        "secondLabel": {"type": "string"},
        "first": {"type": "object"},
        "second": {"type": "object"}
      }
    },
    "fixture": {
      "type": "object",
      "required": ["available"],
      "properties": {
        "available": {"type": "boolean"},
        "disabled": {"type": "boolean"},
        "width": {"type": "object"},
        "state": {"type": "object"},
        "variant": {"type": "object"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Parse validates a wire-form JSON options document against the schema,
// unmarshals it, and normalizes numeric bounds. This is the only entry point
// for documents arriving from the host bridge.
func Parse(raw []byte) (*Document, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate options document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid options document: %s", strings.Join(msgs, "; "))
	}
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode options document: %w", err)
	}
	d.Normalize()
	return &d, nil
}
