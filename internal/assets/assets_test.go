package assets

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"photo.jpg", KindImage},
		{"photo.JPEG", KindImage},
		{"cover.png", KindImage},
		{"art.webp", KindImage},
		{"old.bmp", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.MOV", KindVideo},
		{"clip.webm", KindVideo},
		{"clip.mkv", KindVideo},
		{"clip.avi", KindVideo},
		{"notes.txt", KindUnknown},
		{"audio.mp3", KindUnknown},
		{"noext", KindUnknown},
	}

	for _, c := range cases {
		if got := Classify(c.path); got != c.want {
			t.Errorf("Classify(%q) = %s，期望 %s", c.path, got, c.want)
		}
	}
}

func TestResolveRoundRobin(t *testing.T) {
	images := []string{"a.png", "b.png"}
	videos := []string{"x.mp4", "y.mp4", "z.mp4"}

	assignments := Resolve(5, images, videos)
	if len(assignments) != 5 {
		t.Fatalf("期望5个分配结果，实际 %d", len(assignments))
	}

	wantImages := []string{"a.png", "b.png", "a.png", "b.png", "a.png"}
	wantVideos := []string{"x.mp4", "y.mp4", "z.mp4", "x.mp4", "y.mp4"}

	for i := range assignments {
		if assignments[i].Image != wantImages[i] {
			t.Errorf("场景 %d 图片分配 %q，期望 %q", i, assignments[i].Image, wantImages[i])
		}
		if assignments[i].Video != wantVideos[i] {
			t.Errorf("场景 %d 视频分配 %q，期望 %q", i, assignments[i].Video, wantVideos[i])
		}
	}
}

func TestResolveEmptyPools(t *testing.T) {
	assignments := Resolve(3, nil, nil)
	for i, a := range assignments {
		if a.Image != "" || a.Video != "" {
			t.Errorf("空资产池时场景 %d 不应有分配: %+v", i, a)
		}
	}

	// 只有图片池
	assignments = Resolve(2, []string{"only.jpg"}, nil)
	for i, a := range assignments {
		if a.Image != "only.jpg" {
			t.Errorf("场景 %d 期望分配 only.jpg，实际 %q", i, a.Image)
		}
		if a.Video != "" {
			t.Errorf("场景 %d 不应分配视频", i)
		}
	}
}

func TestSplitByKind(t *testing.T) {
	images, videos := SplitByKind([]string{"a.png", "b.mp4", "c.txt", "d.jpeg"})

	if len(images) != 2 || images[0] != "a.png" || images[1] != "d.jpeg" {
		t.Errorf("图片池拆分错误: %v", images)
	}
	if len(videos) != 1 || videos[0] != "b.mp4" {
		t.Errorf("视频池拆分错误: %v", videos)
	}
}
