package catalog

import (
	"context"
	"strings"
	"unicode"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTones 去掉越南语声调: NFD 分解后丢弃组合符号, đ/Đ 单独映射。
var foldTones = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}),
	norm.NFC,
)

// normalize 把文本折叠成无声调小写形式用于模糊匹配。
func normalize(s string) string {
	folded, _, err := transform.String(foldTones, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// searchCorpus 适配 fuzzy.Source, 按 "名称 分类" 组合串匹配。
type searchCorpus []model.Product

func (c searchCorpus) String(i int) string {
	return normalize(c[i].Name + " " + c[i].Category)
}

func (c searchCorpus) Len() int { return len(c) }

// SearchProducts 模糊搜索商品, 对越南语声调不敏感。
// 空查询返回空结果而不是全量列表。
func (s *Service) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Product{}, nil
	}

	products, err := s.store.AllProducts(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	corpus := searchCorpus(products)
	matches := fuzzy.FindFrom(normalize(query), corpus)

	result := make([]model.Product, 0, len(matches))
	for _, m := range matches {
		result = append(result, products[m.Index])
	}
	return result, nil
}
