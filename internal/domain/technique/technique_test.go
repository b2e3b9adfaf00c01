package technique_test

import (
	"testing"

	"github.com/okian/zanshin/internal/domain/technique"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonicalKey(t *testing.T) {
	Convey("Given a target and a method set", t, func() {
		Convey("Then the key is independent of method entry order", func() {
			a := technique.CanonicalKey("KOTE", []string{"SURIAGE", "HIDARI"})
			b := technique.CanonicalKey("KOTE", []string{"HIDARI", "SURIAGE"})
			So(a, ShouldEqual, b)
			So(a, ShouldEqual, "KOTE:HIDARI+SURIAGE")
		})

		Convey("Then all permutations of a three-method set collapse", func() {
			methods := []string{"DEBANA", "KAESHI", "SURIAGE"}
			perms := [][]string{
				{"DEBANA", "KAESHI", "SURIAGE"},
				{"DEBANA", "SURIAGE", "KAESHI"},
				{"KAESHI", "DEBANA", "SURIAGE"},
				{"KAESHI", "SURIAGE", "DEBANA"},
				{"SURIAGE", "DEBANA", "KAESHI"},
				{"SURIAGE", "KAESHI", "DEBANA"},
			}
			want := technique.CanonicalKey("MEN", methods)
			for _, p := range perms {
				So(technique.CanonicalKey("MEN", p), ShouldEqual, want)
			}
		})

		Convey("Then the input slice is not mutated", func() {
			in := []string{"SURIAGE", "DEBANA"}
			_ = technique.CanonicalKey("MEN", in)
			So(in[0], ShouldEqual, "SURIAGE")
			So(in[1], ShouldEqual, "DEBANA")
		})

		Convey("Then a bare strike keeps an empty method segment", func() {
			So(technique.CanonicalKey("MEN", nil), ShouldEqual, "MEN:")
		})

		Convey("Then no target and no methods yields the incomplete sentinel", func() {
			key := technique.CanonicalKey("", nil)
			So(key, ShouldEqual, technique.KeyIncomplete)
			So(technique.IsIncomplete(key), ShouldBeTrue)
			So(technique.IsIncomplete("MEN:"), ShouldBeFalse)
		})
	})
}

func TestCoarseKey(t *testing.T) {
	Convey("Given the coarse granularity adapter", t, func() {
		Convey("Then any two method lists with the same target collapse", func() {
			a := technique.CoarseKey("DO", []string{"GYAKU"})
			b := technique.CoarseKey("DO", []string{"KAESHI", "TOBIKOMI"})
			c := technique.CoarseKey("DO", nil)
			So(a, ShouldEqual, "DO")
			So(b, ShouldEqual, "DO")
			So(c, ShouldEqual, "DO")
		})

		Convey("Then the incomplete sentinel survives coarsening", func() {
			So(technique.CoarseKey("", nil), ShouldEqual, technique.KeyIncomplete)
		})
	})
}

func TestQualifierAllowed(t *testing.T) {
	Convey("Given the qualifier/target combination rules", t, func() {
		Convey("GYAKU is DO only", func() {
			So(technique.QualifierAllowed(technique.TargetDo, technique.MethodGyaku), ShouldBeTrue)
			So(technique.QualifierAllowed(technique.TargetMen, technique.MethodGyaku), ShouldBeFalse)
		})
		Convey("HIDARI is KOTE only", func() {
			So(technique.QualifierAllowed(technique.TargetKote, technique.MethodHidari), ShouldBeTrue)
			So(technique.QualifierAllowed(technique.TargetDo, technique.MethodHidari), ShouldBeFalse)
		})
		Convey("AIKOTE is MEN only", func() {
			So(technique.QualifierAllowed(technique.TargetMen, technique.MethodAikote), ShouldBeTrue)
			So(technique.QualifierAllowed(technique.TargetTsuki, technique.MethodAikote), ShouldBeFalse)
		})
		Convey("Plain methods pair with any target", func() {
			for _, tgt := range technique.Targets() {
				So(technique.QualifierAllowed(tgt, technique.MethodSuriage), ShouldBeTrue)
				So(technique.QualifierAllowed(tgt, technique.MethodDebana), ShouldBeTrue)
			}
		})
	})
}
