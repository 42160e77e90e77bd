package isys

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RangeScaleTable 16位模式的距离缩放因子映射：产品型号 -> 米/线值。
// 协议文档里该缩放按产品型号区分（0.01或0.001），不能猜，
// 必须由配置显式给出；表里没有的型号直接拒绝解码。
type RangeScaleTable struct {
	Scales map[uint16]float64 `yaml:"scales"`
}

// DefaultRangeScaleTable 已知型号的内置映射
func DefaultRangeScaleTable() *RangeScaleTable {
	return &RangeScaleTable{
		Scales: map[uint16]float64{
			4001: 0.01,
			4002: 0.01,
			4003: 0.01,
			4004: 0.01,
			6003: 0.001,
			6004: 0.001,
		},
	}
}

// LoadRangeScaleTable 从YAML文件加载映射，与内置表合并（文件优先）
func LoadRangeScaleTable(path string) (*RangeScaleTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read range scale table: %w", err)
	}
	var t RangeScaleTable
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("unmarshal range scale table: %w", err)
	}
	merged := DefaultRangeScaleTable()
	for k, v := range t.Scales {
		merged.Scales[k] = v
	}
	return merged, nil
}

// Scale 查询产品型号对应的16位距离缩放因子
func (t *RangeScaleTable) Scale(productCode uint16) (float64, bool) {
	if t == nil || t.Scales == nil {
		return 0, false
	}
	v, ok := t.Scales[productCode]
	return v, ok
}
