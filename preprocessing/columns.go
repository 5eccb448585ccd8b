// Package preprocessing はデータフレームの列を学習用のスキーマに整える変換器を提供します。
package preprocessing

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/dataingest/pkg/errors"
)

// Transformer はデータフレーム変換のインターフェース
type Transformer interface {
	// Transform はデータフレームを変換した新しいデータフレームを返す。入力は変更しない
	Transform(df dataframe.DataFrame) (dataframe.DataFrame, error)
}

// SpamDropColumns はSMSスパムデータセットに含まれる空の列
var SpamDropColumns = []string{"Unnamed: 2", "Unnamed: 3", "Unnamed: 4"}

// SpamRename はSMSスパムデータセットの列名の変換表
var SpamRename = map[string]string{"v1": "target", "v2": "text"}

// ColumnCleaner は不要な列を削除し、残った列の名前を変更する変換器
type ColumnCleaner struct {
	// Drop は削除する列名
	Drop []string

	// Rename は変更前の列名から変更後の列名への対応表
	Rename map[string]string
}

// NewColumnCleaner は新しいColumnCleanerを作成する
//
// パラメータ:
//   - drop: 削除する列名
//   - rename: 変更前の列名 → 変更後の列名
//
// 使用例:
//
//	cleaner := preprocessing.NewColumnCleaner(
//	    []string{"Unnamed: 2"},
//	    map[string]string{"v1": "target"},
//	)
//	out, err := cleaner.Transform(df)
func NewColumnCleaner(drop []string, rename map[string]string) *ColumnCleaner {
	c := &ColumnCleaner{
		Drop:   append([]string(nil), drop...),
		Rename: make(map[string]string, len(rename)),
	}
	for from, to := range rename {
		c.Rename[from] = to
	}
	return c
}

// NewSpamColumnCleaner はSMSスパムデータセット用の設定でColumnCleanerを作成する
func NewSpamColumnCleaner() *ColumnCleaner {
	return NewColumnCleaner(SpamDropColumns, SpamRename)
}

// Transform は列の削除と名前の変更をこの順で適用する
//
// 変換の前に全ての列の存在を確認し、見つからない列があれば
// 何も変更せずに全ての欠落列を含むMissingColumnErrorを返す。
//
// 戻り値:
//   - dataframe.DataFrame: 変換後のデータフレーム（入力のコピー）
//   - error: 列が欠落している場合、または変換後の列名が重複する場合
func (c *ColumnCleaner) Transform(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Err, "ColumnCleaner.Transform")
	}

	names := df.Names()
	if err := c.checkColumns(names); err != nil {
		return dataframe.DataFrame{}, err
	}

	out := df.Copy()
	if len(c.Drop) > 0 {
		if countUnique(c.Drop) >= len(names) {
			return dataframe.DataFrame{}, errors.NewValueError("ColumnCleaner.Transform", "dropping every column leaves an empty table")
		}
		out = df.Drop(c.Drop)
		if out.Err != nil {
			return dataframe.DataFrame{}, errors.Wrap(out.Err, "ColumnCleaner.Transform")
		}
	}

	renamed := out.Names()
	seen := make(map[string]bool, len(renamed))
	for i, name := range renamed {
		if to, ok := c.Rename[name]; ok {
			renamed[i] = to
		}
		if seen[renamed[i]] {
			return dataframe.DataFrame{}, errors.NewValidationError("rename", "duplicate column name after renaming", renamed[i])
		}
		seen[renamed[i]] = true
	}
	if err := out.SetNames(renamed...); err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "ColumnCleaner.Transform")
	}
	return out, nil
}

// checkColumns は削除対象と名前変更対象の列が全て存在するか確認する。
// 削除される列は名前変更の対象にできない。
func (c *ColumnCleaner) checkColumns(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	dropped := make(map[string]bool, len(c.Drop))
	var missingDrop []string
	for _, col := range c.Drop {
		if !present[col] {
			missingDrop = append(missingDrop, col)
		}
		dropped[col] = true
	}

	sources := make([]string, 0, len(c.Rename))
	for from := range c.Rename {
		sources = append(sources, from)
	}
	sort.Strings(sources)
	var missingRename []string
	for _, from := range sources {
		if !present[from] || dropped[from] {
			missingRename = append(missingRename, from)
		}
	}

	var dropErr, renameErr error
	if len(missingDrop) > 0 {
		dropErr = errors.NewMissingColumnError("drop", missingDrop...)
	}
	if len(missingRename) > 0 {
		renameErr = errors.NewMissingColumnError("rename", missingRename...)
	}
	if dropErr != nil && renameErr != nil {
		return errors.Join(dropErr, renameErr)
	}
	if dropErr != nil {
		return dropErr
	}
	return renameErr
}

func countUnique(cols []string) int {
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	return len(set)
}
