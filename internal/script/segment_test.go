package script

import (
	"strings"
	"testing"
)

func TestSegment(t *testing.T) {
	text := "Hello world.\n\nGoodbye now."

	scenes := Segment(text)
	if len(scenes) != 2 {
		t.Fatalf("期望2个场景，实际得到 %d 个", len(scenes))
	}

	if scenes[0].Text != "Hello world." {
		t.Errorf("第一个场景文本不正确: %q", scenes[0].Text)
	}
	if scenes[1].Text != "Goodbye now." {
		t.Errorf("第二个场景文本不正确: %q", scenes[1].Text)
	}

	for i, s := range scenes {
		if s.Duration < 4 {
			t.Errorf("场景 %d 时长 %.1f 低于最短时长4秒", i, s.Duration)
		}
	}
}

func TestSegmentParagraphCount(t *testing.T) {
	text := "第一段。\n\n\n\n第二段。\n\n   \n\n第三段。"

	scenes := Segment(text)
	if len(scenes) != 3 {
		t.Fatalf("期望3个场景（空白段应被丢弃），实际得到 %d 个", len(scenes))
	}
}

func TestSegmentEmptyScript(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\n", "\r\n\r\n"} {
		if scenes := Segment(text); len(scenes) != 0 {
			t.Errorf("空脚本 %q 应返回空场景序列，实际得到 %d 个", text, len(scenes))
		}
	}
}

func TestSegmentCRLF(t *testing.T) {
	scenes := Segment("first part\r\n\r\nsecond part")
	if len(scenes) != 2 {
		t.Fatalf("CRLF脚本期望2个场景，实际得到 %d 个", len(scenes))
	}
}

func TestEstimateDuration(t *testing.T) {
	// 3个词 / 2.5词每秒 = 1.2秒，低于最短时长，取4秒
	if d := EstimateDuration("one two three"); d != 4 {
		t.Errorf("短文本期望4秒，实际 %.1f", d)
	}

	// 25个词 / 2.5词每秒 = 10秒
	long := strings.Repeat("word ", 25)
	if d := EstimateDuration(long); d != 10 {
		t.Errorf("25词文本期望10秒，实际 %.1f", d)
	}

	// 26个词，向下取整仍为10秒
	if d := EstimateDuration(long + "extra"); d != 10 {
		t.Errorf("26词文本期望10秒（向下取整），实际 %.1f", d)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	text := "场景一的内容在这里。\n\n场景二的内容在这里，比第一段更长一些。"

	first := Segment(text)
	for i := 0; i < 10; i++ {
		again := Segment(text)
		if len(again) != len(first) {
			t.Fatalf("重复分段得到不同数量的场景: %d != %d", len(again), len(first))
		}
		for j := range again {
			if again[j].Duration != first[j].Duration {
				t.Fatalf("场景 %d 的时长不稳定: %.3f != %.3f", j, again[j].Duration, first[j].Duration)
			}
		}
	}
}
