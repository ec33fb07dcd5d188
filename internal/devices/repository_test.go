package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gymgrid/backend/internal/models"
)

func strptr(s string) *string { return &s }

func TestBuildUpdateFieldSemantics(t *testing.T) {
	update := buildUpdate(Patch{
		DeviceName: "Treadmill",
		Model:      strptr(""),
		Status:     strptr("maintenance"),
		ModifiedBy: "uid-1",
	})

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)

	assert.Equal(t, "Treadmill", set["device_name"])
	assert.Equal(t, "", set["model"])
	assert.Equal(t, "maintenance", set["status"])
	assert.Equal(t, "uid-1", set["last_modified_by"])
	assert.Contains(t, set, "updated_at")

	// Empty required-type fields and absent pointers are left alone.
	assert.NotContains(t, set, "type")
	assert.NotContains(t, set, "serial_number")
	assert.NotContains(t, set, "manufacturer")
	assert.NotContains(t, update, "$unset")
}

func TestBuildUpdateAssignOrganization(t *testing.T) {
	orgID := primitive.NewObjectID()
	update := buildUpdate(Patch{
		OrganizationID:   &orgID,
		OrganizationName: strptr("Iron Works"),
	})

	set := update["$set"].(bson.M)
	assert.Equal(t, orgID, set["organization_id"])
	assert.Equal(t, "Iron Works", set["organization_name"])
	assert.NotContains(t, update, "$unset")
}

func TestBuildUpdateClearOrganization(t *testing.T) {
	update := buildUpdate(Patch{ClearOrganization: true})

	set := update["$set"].(bson.M)
	assert.Equal(t, models.UnassignedOrganization, set["organization_name"])
	assert.NotContains(t, set, "organization_id")

	unset, ok := update["$unset"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, unset, "organization_id")
}
