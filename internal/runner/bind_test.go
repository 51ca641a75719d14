package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/querysql"
)

func TestBind(t *testing.T) {
	params := []querysql.Parameter{
		{Name: "gp1", Value: "ab%"},
		{Name: "gp2", Value: int64(5)},
	}
	external := map[string]any{"p__linq__0": 7}

	tests := []struct {
		name     string
		text     string
		wantText string
		wantArgs []any
	}{
		{
			name:     "generated in text order",
			text:     "SELECT `Extent1`.`id` FROM `t` AS `Extent1` WHERE (`Extent1`.`name` LIKE @gp1) AND (`Extent1`.`id` > @gp2)",
			wantText: "SELECT `Extent1`.`id` FROM `t` AS `Extent1` WHERE (`Extent1`.`name` LIKE ?) AND (`Extent1`.`id` > ?)",
			wantArgs: []any{"ab%", int64(5)},
		},
		{
			name:     "external reference",
			text:     "SELECT 1 WHERE @p__linq__0 = @gp2",
			wantText: "SELECT 1 WHERE ? = ?",
			wantArgs: []any{7, int64(5)},
		},
		{
			name:     "repeated placeholder",
			text:     "SELECT @gp2, @gp2",
			wantText: "SELECT ?, ?",
			wantArgs: []any{int64(5), int64(5)},
		},
		{
			name:     "quoted text untouched",
			text:     "SELECT '@gp1', 'it''s @gp2', \"@x\", `@col` FROM t WHERE a = @gp1",
			wantText: "SELECT '@gp1', 'it''s @gp2', \"@x\", `@col` FROM t WHERE a = ?",
			wantArgs: []any{"ab%"},
		},
		{
			name:     "backslash escape in string",
			text:     `SELECT 'a\'@gp1' , @gp1`,
			wantText: `SELECT 'a\'@gp1' , ?`,
			wantArgs: []any{"ab%"},
		},
		{
			name:     "system variable",
			text:     "SELECT @@session.sql_mode, @gp1",
			wantText: "SELECT @@session.sql_mode, ?",
			wantArgs: []any{"ab%"},
		},
		{
			name:     "comments untouched",
			text:     "SELECT @gp1 -- keeps @gp2\n, 5--1 # and @gp2\n/* @missing */ FROM t",
			wantText: "SELECT ? -- keeps @gp2\n, 5--1 # and @gp2\n/* @missing */ FROM t",
			wantArgs: []any{"ab%"},
		},
		{
			name:     "double dash without space is subtraction",
			text:     "SELECT 5--@gp2",
			wantText: "SELECT 5--?",
			wantArgs: []any{int64(5)},
		},
		{
			name:     "defining query user variable",
			text:     "SELECT `Extent1`.`n` FROM (SELECT @rn := @rn + 1 AS n FROM t, (SELECT @rn := 0) AS r) AS `Extent1` WHERE `Extent1`.`n` > @gp2",
			wantText: "SELECT `Extent1`.`n` FROM (SELECT @rn := @rn + 1 AS n FROM t, (SELECT @rn := 0) AS r) AS `Extent1` WHERE `Extent1`.`n` > ?",
			wantArgs: []any{int64(5)},
		},
		{
			name:     "lone at sign",
			text:     "SELECT 'x' @ 1",
			wantText: "SELECT 'x' @ 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, args, err := Bind(tt.text, params, external)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBind_GeneratedShadowsExternal(t *testing.T) {
	_, args, err := Bind("SELECT @gp1", []querysql.Parameter{{Name: "gp1", Value: "gen"}}, map[string]any{"gp1": "ext"})
	require.NoError(t, err)
	assert.Equal(t, []any{"gen"}, args)
}

func TestBind_MissingValue(t *testing.T) {
	_, _, err := Bind("SELECT 1 WHERE a = @missing", nil, nil)
	require.Error(t, err)

	var be *BindError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "missing", be.Name)
	assert.Equal(t, 19, be.Offset)
}

func TestBind_UnterminatedBlockComment(t *testing.T) {
	text, args, err := Bind("SELECT @gp1 /* @gp1", []querysql.Parameter{{Name: "gp1", Value: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ? /* @gp1", text)
	assert.Equal(t, []any{1}, args)
}

func TestBind_GeneratedNameIsNeverUserVariable(t *testing.T) {
	text, args, err := Bind("SELECT @gp1 := 1, @gp1", []querysql.Parameter{{Name: "gp1", Value: 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ? := 1, ?", text)
	assert.Equal(t, []any{2, 2}, args)
}
