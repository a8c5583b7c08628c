package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	id := uuid.NewString()

	assert.NoError(t, run(id, "ADMIN", time.Minute))
	assert.Error(t, run("not-a-uuid", "USER", time.Minute))
	assert.Error(t, run(id, "OWNER", time.Minute))

	t.Setenv("JWT_SECRET", "")
	assert.Error(t, run(id, "USER", time.Minute))
}
