// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
)

// ProfileSchemaID is the $id of the stored profile schema.
const ProfileSchemaID = "https://ecotrack.dev/schemas/user_profile.schema.json"

var (
	profileSchemaOnce sync.Once
	profileSchema     *jschema.Schema
	profileSchemaErr  error
)

// GenerateProfileSchema reflects the JSON Schema of auth.UserProfile.
// The schema checks shape only: the value must be an object and known
// fields must have the right types. No field is required, so any profile
// Save accepts reads back. Unknown properties are allowed so that profiles
// written by other clients still load.
func GenerateProfileSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&auth.UserProfile{})
	schema.ID = jsonschema.ID(ProfileSchemaID)
	schema.Title = "EcoTrack User Profile"
	schema.Description = "Profile persisted under the \"user\" session key"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SESSION_SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

func compiledProfileSchema() (*jschema.Schema, error) {
	profileSchemaOnce.Do(func() {
		raw, err := GenerateProfileSchema()
		if err != nil {
			profileSchemaErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			profileSchemaErr = oops.Code("SESSION_SCHEMA_COMPILE_FAILED").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource(ProfileSchemaID, doc); err != nil {
			profileSchemaErr = oops.Code("SESSION_SCHEMA_COMPILE_FAILED").Wrap(err)
			return
		}
		profileSchema, profileSchemaErr = c.Compile(ProfileSchemaID)
		if profileSchemaErr != nil {
			profileSchemaErr = oops.Code("SESSION_SCHEMA_COMPILE_FAILED").Wrap(profileSchemaErr)
		}
	})
	return profileSchema, profileSchemaErr
}

// DecodeProfile parses a stored profile, rejecting values that are not a
// JSON object or carry a known field with the wrong type.
func DecodeProfile(raw string) (auth.UserProfile, error) {
	sch, err := compiledProfileSchema()
	if err != nil {
		return auth.UserProfile{}, err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader([]byte(raw)))
	if err != nil {
		return auth.UserProfile{}, oops.Code("SESSION_PROFILE_INVALID").With("reason", "not json").Wrap(err)
	}
	if err := sch.Validate(doc); err != nil {
		return auth.UserProfile{}, oops.Code("SESSION_PROFILE_INVALID").With("reason", "schema").Wrap(err)
	}

	var profile auth.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return auth.UserProfile{}, oops.Code("SESSION_PROFILE_INVALID").With("reason", "decode").Wrap(err)
	}
	return profile, nil
}
