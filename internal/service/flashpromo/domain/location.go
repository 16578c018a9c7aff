// internal/service/flashpromo/domain/location.go
package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// coordPrecision 是坐标统一归一化到的小数位数。
// 约 0.1 米级精度，足够半径过滤使用，同时保证相等性/哈希不受浮点漂移影响。
const coordPrecision = 6

const (
	earthRadiusKm = 6371.0 // 平均地球半径，用于 haversine

	// WGS-84 椭球参数，用于高精度测地距离
	wgs84MajorAxisKm = 6378.137
	wgs84Flattening  = 1.0 / 298.257223563
)

// Location 是不可变的地理坐标值对象。
type Location struct {
	latitude  decimal.Decimal
	longitude decimal.Decimal
}

// NewLocation 构造 Location，坐标越界返回 ErrValidation。
func NewLocation(latitude, longitude decimal.Decimal) (Location, error) {
	if latitude.LessThan(decimal.NewFromInt(-90)) || latitude.GreaterThan(decimal.NewFromInt(90)) {
		return Location{}, fmt.Errorf("%w: latitude must be between -90 and 90 degrees", ErrValidation)
	}
	if longitude.LessThan(decimal.NewFromInt(-180)) || longitude.GreaterThan(decimal.NewFromInt(180)) {
		return Location{}, fmt.Errorf("%w: longitude must be between -180 and 180 degrees", ErrValidation)
	}
	return Location{
		latitude:  latitude.Round(coordPrecision),
		longitude: longitude.Round(coordPrecision),
	}, nil
}

// NewLocationFromFloat 从 float64 坐标构造 Location。
func NewLocationFromFloat(latitude, longitude float64) (Location, error) {
	return NewLocation(decimal.NewFromFloat(latitude), decimal.NewFromFloat(longitude))
}

// Latitude 返回纬度。
func (l Location) Latitude() decimal.Decimal { return l.latitude }

// Longitude 返回经度。
func (l Location) Longitude() decimal.Decimal { return l.longitude }

// Equal 按归一化后的坐标比较。
func (l Location) Equal(other Location) bool {
	return l.latitude.Equal(other.latitude) && l.longitude.Equal(other.longitude)
}

// DistanceKm 用 haversine 公式计算两点间大圆距离（公里）。
// 这是便宜的近似，仓储层的包围盒预筛用它；精确确认用 GeodesicDistanceKm。
func (l Location) DistanceKm(other Location) float64 {
	lat1 := radians(l.latitude)
	lon1 := radians(l.longitude)
	lat2 := radians(other.latitude)
	lon2 := radians(other.longitude)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))

	return c * earthRadiusKm
}

// GeodesicDistanceKm 用 Andoyer-Lambert 椭球近似计算测地距离（公里），
// 精度优于球面近似，作为半径判定的最终确认。
func (l Location) GeodesicDistanceKm(other Location) float64 {
	lat1 := radians(l.latitude)
	lon1 := radians(l.longitude)
	lat2 := radians(other.latitude)
	lon2 := radians(other.longitude)

	f := (lat1 + lat2) / 2
	g := (lat1 - lat2) / 2
	lam := (lon1 - lon2) / 2

	sinG2 := math.Pow(math.Sin(g), 2)
	cosG2 := math.Pow(math.Cos(g), 2)
	sinF2 := math.Pow(math.Sin(f), 2)
	cosF2 := math.Pow(math.Cos(f), 2)
	sinL2 := math.Pow(math.Sin(lam), 2)
	cosL2 := math.Pow(math.Cos(lam), 2)

	s := sinG2*cosL2 + cosF2*sinL2
	c := cosG2*cosL2 + sinF2*sinL2

	omega := math.Atan(math.Sqrt(s / c))
	if omega == 0 || math.IsNaN(omega) {
		return 0
	}

	r := math.Sqrt(s*c) / omega
	d := 2 * omega * wgs84MajorAxisKm
	h1 := (3*r - 1) / (2 * c)
	h2 := (3*r + 1) / (2 * s)

	return d * (1 + wgs84Flattening*(h1*sinF2*cosG2-h2*cosF2*sinG2))
}

// WithinRadius 判断另一点是否在给定半径内（haversine 近似）。
func (l Location) WithinRadius(other Location, radiusKm float64) bool {
	return l.DistanceKm(other) <= radiusKm
}

// WithinRadiusPrecise 判断另一点是否在给定半径内（测地精确确认）。
func (l Location) WithinRadiusPrecise(other Location, radiusKm float64) bool {
	return l.GeodesicDistanceKm(other) <= radiusKm
}

func (l Location) String() string {
	return fmt.Sprintf("(%s, %s)", l.latitude.String(), l.longitude.String())
}

func radians(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f * math.Pi / 180
}
