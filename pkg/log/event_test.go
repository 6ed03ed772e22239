package log

import "testing"

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.dir.String()
		if got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerFraming, "FRAMING"},
		{LayerCipher, "CIPHER"},
		{LayerEngine, "ENGINE"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.layer.String()
		if got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
		{CategoryAdmission, "ADMISSION"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleServer, "SERVER"},
		{RoleClient, "CLIENT"},
		{Role(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.role.String()
		if got != tt.want {
			t.Errorf("Role(%d).String() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestStateEntityString(t *testing.T) {
	tests := []struct {
		entity StateEntity
		want   string
	}{
		{StateEntityConnection, "CONNECTION"},
		{StateEntityServer, "SERVER"},
		{StateEntityClient, "CLIENT"},
		{StateEntity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.entity.String()
		if got != tt.want {
			t.Errorf("StateEntity(%d).String() = %q, want %q", tt.entity, got, tt.want)
		}
	}
}

func TestEnumValues(t *testing.T) {
	// Explicit values are part of the file format.
	tests := []struct {
		name string
		got  uint8
		want uint8
	}{
		{"DirectionIn", uint8(DirectionIn), 0},
		{"DirectionOut", uint8(DirectionOut), 1},
		{"LayerTransport", uint8(LayerTransport), 0},
		{"LayerFraming", uint8(LayerFraming), 1},
		{"LayerCipher", uint8(LayerCipher), 2},
		{"LayerEngine", uint8(LayerEngine), 3},
		{"CategoryMessage", uint8(CategoryMessage), 0},
		{"CategoryState", uint8(CategoryState), 1},
		{"CategoryError", uint8(CategoryError), 2},
		{"CategoryAdmission", uint8(CategoryAdmission), 3},
		{"RoleServer", uint8(RoleServer), 0},
		{"RoleClient", uint8(RoleClient), 1},
		{"StateEntityConnection", uint8(StateEntityConnection), 0},
		{"StateEntityServer", uint8(StateEntityServer), 1},
		{"StateEntityClient", uint8(StateEntityClient), 2},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}
