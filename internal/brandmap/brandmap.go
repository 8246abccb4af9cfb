package brandmap

import (
	"fmt"
	"sort"
)

// Lookup 组织 ID 与品牌名的双向查询接口，便于测试注入合成映射。
type Lookup interface {
	BrandName(orgID int64) (string, bool)
	OrganizationID(brand string) (int64, bool)
	Brands() []string
}

// Config 允许通过配置文件扩展或覆盖内置映射。
type Config struct {
	Organizations map[int64]string `yaml:"organizations" json:"organizations"`
}

// Static 内存实现，表内容在构造后不再变化。
type Static struct {
	byOrg   map[int64]string
	byBrand map[string]int64
}

// 内置组织映射，来自运营侧维护的品牌分区表。
var builtin = map[int64]string{
	910165193: "肯德基",
	910165194: "必胜客",
	910165195: "奥乐齐",
	910165196: "大米先生",
	910165197: "成都你六姐",
	910165198: "天津肯德基",
}

// NewStatic 创建静态映射，配置项覆盖内置条目。
func NewStatic(cfg Config) *Static {
	byOrg := make(map[int64]string, len(builtin)+len(cfg.Organizations))
	for id, name := range builtin {
		byOrg[id] = name
	}
	for id, name := range cfg.Organizations {
		if name == "" {
			delete(byOrg, id)
			continue
		}
		byOrg[id] = name
	}

	byBrand := make(map[string]int64, len(byOrg))
	for id, name := range byOrg {
		byBrand[name] = id
	}
	return &Static{byOrg: byOrg, byBrand: byBrand}
}

// NewStaticFromTable 用显式表创建映射，测试用。
func NewStaticFromTable(table map[int64]string) *Static {
	byOrg := make(map[int64]string, len(table))
	byBrand := make(map[string]int64, len(table))
	for id, name := range table {
		byOrg[id] = name
		byBrand[name] = id
	}
	return &Static{byOrg: byOrg, byBrand: byBrand}
}

// BrandName 返回组织对应品牌名。
func (s *Static) BrandName(orgID int64) (string, bool) {
	name, ok := s.byOrg[orgID]
	return name, ok
}

// OrganizationID 返回品牌对应组织 ID。
func (s *Static) OrganizationID(brand string) (int64, bool) {
	id, ok := s.byBrand[brand]
	return id, ok
}

// Brands 返回全部映射品牌名，按字典序。
func (s *Static) Brands() []string {
	names := make([]string, 0, len(s.byBrand))
	for name := range s.byBrand {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlaceholderBrand 未映射组织的兜底品牌名。
func PlaceholderBrand(orgID int64) string {
	return fmt.Sprintf("未知品牌-%d", orgID)
}
