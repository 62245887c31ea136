package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownEnvelope = errors.New("upstream: неизвестный формат списка")

// Page - нормализованный список: голый массив и Spring Page приводятся к одному виду.
type Page[T any] struct {
	Items         []T   `json:"items"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	// Paged - пришёл ли ответ в обёртке с пагинацией.
	Paged bool `json:"paged"`
}

type springPage[T any] struct {
	Content       *[]T  `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// DecodeList принимает либо JSON массив, либо объект
// {content,totalPages,totalElements,number,size}. Всё остальное - ошибка.
func DecodeList[T any](data []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Page[T]{}, fmt.Errorf("%w: пустое тело", ErrUnknownEnvelope)
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("upstream: decode array: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		totalPages := 1
		if len(items) == 0 {
			totalPages = 0
		}
		return Page[T]{
			Items:         items,
			TotalPages:    totalPages,
			TotalElements: int64(len(items)),
			Size:          len(items),
		}, nil
	case '{':
		var page springPage[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return Page[T]{}, fmt.Errorf("upstream: decode page: %w", err)
		}
		if page.Content == nil {
			return Page[T]{}, fmt.Errorf("%w: нет поля content", ErrUnknownEnvelope)
		}
		items := *page.Content
		if items == nil {
			items = []T{}
		}
		return Page[T]{
			Items:         items,
			TotalPages:    page.TotalPages,
			TotalElements: page.TotalElements,
			Number:        page.Number,
			Size:          page.Size,
			Paged:         true,
		}, nil
	}
	return Page[T]{}, fmt.Errorf("%w: %.32s", ErrUnknownEnvelope, trimmed)
}
