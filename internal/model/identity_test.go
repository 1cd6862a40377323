package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/study-time-tracker/internal/model"
)

func TestObjectID(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	sem, mod, e := study.AddEntry("S1", "M1", "A", "")

	tests := []struct {
		obj  any
		want string
	}{
		{sem, "semester:" + sem.ID},
		{mod, "module:" + mod.ID},
		{e, "entry:" + e.ID},
	}
	for _, tt := range tests {
		got, err := model.ObjectID(tt.obj)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := model.ObjectID(study)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = model.ObjectID("entry")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = model.ObjectID((*model.Entry)(nil))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestObjectIDBackfillsMissingIdentifier(t *testing.T) {
	e := &model.Entry{Category: "legacy"}

	id, err := model.ObjectID(e)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "entry:"+e.ID, id)

	again, err := model.ObjectID(e)
	require.NoError(t, err)
	assert.Equal(t, id, again, "identifier is assigned only once")
}

func TestParseObjectID(t *testing.T) {
	kind, id, err := model.ParseObjectID("module:abc:def")
	require.NoError(t, err)
	assert.Equal(t, model.KindModule, kind)
	assert.Equal(t, "abc:def", id)

	_, _, err = model.ParseObjectID("study:abc")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = model.ParseObjectID("abc")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestLookupReturnsStoredInstance(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	sem, mod, e := study.AddEntry("S1", "M1", "A", "")
	otherSem, otherMod, otherEntry := study.AddEntry("S2", "M2", "B", "")

	for _, obj := range []any{sem, mod, e, otherSem, otherMod, otherEntry} {
		ref, err := model.ObjectID(obj)
		require.NoError(t, err)

		got, err := study.Lookup(ref, nil)
		require.NoError(t, err)
		assert.Same(t, obj, got, ref)
	}

	ref, _ := model.ObjectID(e)
	for _, parent := range []any{study, sem, mod} {
		got, err := study.Lookup(ref, parent)
		require.NoError(t, err)
		assert.Same(t, e, got)
	}
}

func TestLookupRestrictedToParent(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	sem, mod, _ := study.AddEntry("S1", "M1", "A", "")
	otherSem, otherMod, otherEntry := study.AddEntry("S2", "M2", "B", "")

	entryRef, _ := model.ObjectID(otherEntry)
	got, err := study.Lookup(entryRef, sem)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = study.Lookup(entryRef, mod)
	require.NoError(t, err)
	assert.Nil(t, got)

	modRef, _ := model.ObjectID(otherMod)
	got, err = study.Lookup(modRef, otherSem)
	require.NoError(t, err)
	assert.Same(t, otherMod, got)

	got, err = study.Lookup(modRef, otherMod)
	require.NoError(t, err)
	assert.Nil(t, got, "a module is not its own child")

	semRef, _ := model.ObjectID(otherSem)
	got, err = study.Lookup(semRef, sem)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookupUnknown(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	study.AddEntry("S1", "M1", "A", "")

	got, err := study.Lookup("entry:does-not-exist", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = study.Lookup("course:x", nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = study.Lookup("entry:x", "S1")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestLookupNilPointerParent(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	sem, mod, e := study.AddEntry("S1", "M1", "A", "")
	entryRef, _ := model.ObjectID(e)
	modRef, _ := model.ObjectID(mod)
	semRef, _ := model.ObjectID(sem)

	parents := []any{(*model.Study)(nil), (*model.Semester)(nil), (*model.Module)(nil)}
	for _, parent := range parents {
		got, err := study.Lookup(entryRef, parent)
		require.NoError(t, err, "%T", parent)
		assert.Same(t, e, got, "%T searches the whole study", parent)

		got, err = study.Lookup(modRef, parent)
		require.NoError(t, err)
		assert.Same(t, mod, got)

		got, err = study.Lookup(semRef, parent)
		require.NoError(t, err)
		assert.Same(t, sem, got)

		got, err = study.Lookup("entry:does-not-exist", parent)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestFindEntryReturnsContainers(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	sem, mod, e := study.AddEntry("S1", "M1", "A", "")

	gotSem, gotMod, gotEntry := study.FindEntry(e.ID)
	assert.Same(t, sem, gotSem)
	assert.Same(t, mod, gotMod)
	assert.Same(t, e, gotEntry)

	gotSem, gotMod = study.FindModule(mod.ID)
	assert.Same(t, sem, gotSem)
	assert.Same(t, mod, gotMod)

	_, _, gotEntry = study.FindEntry(strings.ToUpper(e.ID))
	assert.Nil(t, gotEntry)
}
