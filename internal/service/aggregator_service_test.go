package service

import (
	"basebuilder_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLevelFloor(t *testing.T) {
	cases := []struct {
		name      string
		itemCount int
		levels    []int
		want      int
	}{
		{"无条目", 0, nil, 0},
		{"无作答记录", 3, nil, 0},
		{"全部满级", 2, []int{5, 5}, 5},
		{"向下取整", 3, []int{5, 5, 0}, 3},        // 10/3 = 3.33
		{"缺失行按零计", 4, []int{4, 4}, 2},        // 8/4 = 2
		{"单条目", 1, []int{3}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CategoryLevel(tc.itemCount, tc.levels))
		})
	}
}

func TestCollectionPctFloor(t *testing.T) {
	cases := []struct {
		name      string
		itemCount int
		levels    []int
		want      int
	}{
		{"无条目", 0, nil, 0},
		{"无作答记录", 4, nil, 0},
		{"全部满级", 2, []int{5, 5}, 100},
		{"过半", 3, []int{5, 3, 0}, 53},  // 8/15 = 53.33
		{"缺失行按零计", 5, []int{5}, 20},   // 5/25 = 20
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CollectionPct(tc.itemCount, tc.levels))
		})
	}
}

func TestRecomputeUnknownTargets(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.aggregator.RecomputeCategory(1, "no-such-category")
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)

	_, err = e.aggregator.RecomputeCollection(1, "no-such-collection")
	assert.ErrorIs(t, err, util.ErrCollectionNotFound)
}

func TestGetProficiencyDefaults(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "默认值")
	item := seedItem(t, e.db, cat.ID, "未作答条目")

	// 从未作答的条目不落库，但查询返回零级默认值
	prof, err := e.aggregator.GetItemProficiency(5, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, prof.Level)

	row, err := e.profRepo.GetItem(5, item.ID)
	require.NoError(t, err)
	assert.Nil(t, row, "a default must not materialize a row")

	catProf, err := e.aggregator.GetCategoryProficiency(5, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, catProf.Level)
}

func TestRecomputeCategoryPersists(t *testing.T) {
	e := newTestEngine(t)
	cat := seedCategory(t, e.db, "落库")
	items := seedItems(t, e.db, cat.ID, 2)

	const learnerID = 9
	// 一个条目练到级别 2，另一个不动：floor(2/2) = 1
	for i := 0; i < 2; i++ {
		_, err := e.scheduler.RecordAttempt(learnerID, items[0].ID, items[0].Title, true, 100)
		require.NoError(t, err)
	}

	catProf, err := e.profRepo.GetCategory(learnerID, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, catProf)
	assert.Equal(t, 1, catProf.Level)

	// 重算是幂等的
	again, err := e.aggregator.RecomputeCategory(learnerID, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, catProf.Level, again.Level)
}
