package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailed：目录拉取失败（网络、非 2xx 或响应不可解析）
	ErrLoadFailed = errors.New("catalog: load failed")
	// ErrSaveFailed：编辑提交失败
	ErrSaveFailed = errors.New("catalog: save failed")
	// ErrNotFound：后端不存在该条目
	ErrNotFound = errors.New("catalog: item not found")
)

// LoadError：拉取失败详情；Status 为 0 表示未收到响应
type LoadError struct {
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: load items: status %d", e.Status)
	}
	return fmt.Sprintf("catalog: load items: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoadFailed }

// SaveError：提交失败详情
type SaveError struct {
	ID      string
	Status  int
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: update %s: status %d: %s", e.ID, e.Status, e.Message)
	}
	return fmt.Sprintf("catalog: update %s: %v", e.ID, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

func (e *SaveError) Is(target error) bool { return target == ErrSaveFailed }

// NotFoundError：提交目标不存在
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("catalog: item %s not found", e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
