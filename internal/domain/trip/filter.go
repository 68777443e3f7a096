package trip

// FilterType は一覧の絞り込み条件
type FilterType string

const (
	FilterDepartureCity FilterType = "dep_city"
	FilterArrivalCity   FilterType = "arr_city"
	FilterOneWay        FilterType = "one_way"
	FilterTwoWay        FilterType = "two_way"
)

// SupportedFilterTypes はサポートする絞り込み条件の一覧
var SupportedFilterTypes = []FilterType{FilterDepartureCity, FilterArrivalCity, FilterOneWay, FilterTwoWay}

// IsValid はサポートされた絞り込み条件かを返す
func (f FilterType) IsValid() bool {
	for _, s := range SupportedFilterTypes {
		if f == s {
			return true
		}
	}
	return false
}

// Filter は trips を1つの条件で絞り込む。元の順序を保ち、該当なしは空スライスを返す
// 駅名の比較は大文字小文字を区別する
func Filter(trips []*Trip, filterType FilterType, filterData string) ([]*Trip, error) {
	if !filterType.IsValid() {
		return nil, ErrUnsupportedFilterType
	}
	if filterData == "" && (filterType == FilterDepartureCity || filterType == FilterArrivalCity) {
		return nil, ErrFilterDataRequired
	}

	var match func(*Trip) bool
	switch filterType {
	case FilterDepartureCity:
		match = func(t *Trip) bool { return t.DepartureCity == filterData }
	case FilterArrivalCity:
		match = func(t *Trip) bool { return t.ArrivalCity == filterData }
	case FilterOneWay:
		match = func(t *Trip) bool { return !t.TwoWay }
	case FilterTwoWay:
		match = func(t *Trip) bool { return t.TwoWay }
	}

	result := make([]*Trip, 0, len(trips))
	for _, t := range trips {
		if match(t) {
			result = append(result, t)
		}
	}
	return result, nil
}
