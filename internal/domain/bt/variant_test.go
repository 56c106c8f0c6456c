package bt

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseVariant(t *testing.T) {
	Convey("Given the named model variants", t, func() {
		Convey("When each name is parsed", func() {
			for _, name := range []string{"binary", "binary_home", "ordinal", "ordinal_home"} {
				v, err := ParseVariant(name)

				Convey("Then "+name+" round-trips through String", func() {
					So(err, ShouldBeNil)
					So(v.String(), ShouldEqual, name)
				})
			}
		})

		Convey("When defaults are inspected", func() {
			Convey("Then binary uses log ability and ordinal uses raw ability", func() {
				So(VariantBinary.Scale, ShouldEqual, ScaleLog)
				So(VariantOrdinalHome.Scale, ShouldEqual, ScaleRaw)
				So(VariantOrdinal.Cutpoints(), ShouldEqual, 6)
				So(VariantBinaryHome.Cutpoints(), ShouldEqual, 0)
			})
		})

		Convey("When the scale is overridden", func() {
			v := VariantBinaryHome
			v.Scale = ScaleRaw

			Convey("Then the name carries the scale suffix", func() {
				So(v.String(), ShouldEqual, "binary_home_raw")
			})
		})

		Convey("When an unknown name is parsed", func() {
			_, err := ParseVariant("poisson")

			Convey("Then ErrUnknownVariant is returned", func() {
				So(errors.Is(err, ErrUnknownVariant), ShouldBeTrue)
			})
		})
	})
}

func TestParseScale(t *testing.T) {
	Convey("Given scale names", t, func() {
		Convey("Then log and raw are accepted case-insensitively", func() {
			s, err := ParseScale("LOG")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, ScaleLog)
			s, err = ParseScale(" raw ")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, ScaleRaw)
		})

		Convey("Then anything else is rejected", func() {
			_, err := ParseScale("sqrt")
			So(errors.Is(err, ErrUnknownScale), ShouldBeTrue)
		})
	})
}
