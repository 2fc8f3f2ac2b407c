package domain

const (
	// RevisionTypeNone marks a submission where the visitor skipped category selection.
	RevisionTypeNone = 0
	// MaxRevisionTypeID is the highest catalog id.
	MaxRevisionTypeID = 9
	// RevisionTypeNoneTitle is stored as the title when no category was selected.
	RevisionTypeNoneTitle = "선택안함"
)

// RevisionType is one of the predefined revision categories shown on the landing page.
type RevisionType struct {
	ID           int
	Title        string
	Cause        string
	Method       string
	Thumb        string
	BeforeAfter  *string
	SelfieBefore *string
	SelfieAfter  *string
	ProfileImage *string
}

func imageFile(name string) *string {
	return &name
}

var revisionTypes = []RevisionType{
	{
		ID:           1,
		Title:        "코끝이 들리거나 짧아진 경우",
		Cause:        "염증 또는 반복된 수술로 인해 흉살 조직과 피막이 유착되면서 코끝이 들리거나 짧아지고, 피부가 단단해지는 현상입니다.",
		Method:       "보형물을 제거하고 유착된 조직을 풀어준 뒤, 피부를 충분히 늘리고 코끝 연골을 재배치하여 자연스럽게 코끝 위치를 복원합니다.",
		Thumb:        "1.jpg",
		BeforeAfter:  imageFile("1-b-a.png"),
		SelfieBefore: imageFile("1-before.jpg"),
		SelfieAfter:  imageFile("1-after-1.jpg"),
		ProfileImage: imageFile("1_profile.jpg"),
	},
	{
		ID:           2,
		Title:        "코끝이 떨어진 경우",
		Cause:        "코끝 연골이 약하거나 비중격의 지지력이 부족한 경우, 시간이 지나며 코끝이 아래로 처질 수 있습니다.",
		Method:       "자가 늑연골로 지지대를 세우고, 코끝 날개연골을 묶어 구조를 보강함으로써 처진 코끝을 올려줍니다.",
		Thumb:        "2.jpg",
		BeforeAfter:  imageFile("2-b-a.png"),
		SelfieBefore: imageFile("2-before.jpg"),
		SelfieAfter:  imageFile("2-after-1.jpg"),
		ProfileImage: imageFile("2_profile.jpg"),
	},
	{
		ID:           3,
		Title:        "보형물이 휘어 보이는 경우",
		Cause:        "보형물의 아랫면이 코뼈와 정확히 맞지 않거나 한쪽으로 쏠려 있으면 코가 전체적으로 비뚤어져 보일 수 있습니다.",
		Method:       "보형물 하단을 코뼈와 일치하도록 정밀하게 다듬고, 균형 있게 안착시켜 휘어진 라인을 교정합니다.",
		Thumb:        "3.jpg",
		BeforeAfter:  imageFile("3-b-a.png"),
		SelfieBefore: imageFile("3-before.jpg"),
		SelfieAfter:  imageFile("3-after-1.jpg"),
		ProfileImage: imageFile("3_profile.jpg"),
	},
	{
		ID:           4,
		Title:        "보형물이 비치는 경우",
		Cause:        "피부가 얇거나, 두꺼운 보형물 삽입으로 인해 실리콘 테두리나 연골 모양이 겉으로 드러나는 경우입니다.",
		Method:       "보형물을 얇은 실리콘으로 교체하거나, 자가 진피 또는 인공 진피를 덧대어 비침을 완화합니다.",
		Thumb:        "4.jpg",
		BeforeAfter:  imageFile("4-b-a.png"),
		SelfieBefore: imageFile("4-before.jpg"),
		SelfieAfter:  imageFile("4-after-1.jpg"),
		ProfileImage: imageFile("4_profile.jpg"),
	},
	{
		ID:           5,
		Title:        "보형물이 움직이는 경우",
		Cause:        "보형물이 코뼈 위에 정확히 고정되지 않으면 만졌을 때 움직임이 느껴질 수 있습니다.",
		Method:       "보형물의 위치를 재조정하거나, 골막에 안정적으로 고정시켜 재수술을 진행합니다.",
		Thumb:        "5.jpg",
		BeforeAfter:  imageFile("5-b-a.png"),
		SelfieBefore: imageFile("5-before.jpg"),
		SelfieAfter:  imageFile("5-after-1.jpg"),
		ProfileImage: imageFile("5_profile.jpg"),
	},
	{
		ID:           6,
		Title:        "코끝이 찝혀 보이는 경우",
		Cause:        "코끝 연골을 과하게 묶었거나, 피부가 얇은 상태에서 무리하게 높였을 때 생기는 현상입니다.",
		Method:       "연골을 재배치하거나 연골·진피이식을 통해 코끝의 볼륨과 라인을 부드럽게 보완합니다.",
		Thumb:        "6.jpg",
		BeforeAfter:  imageFile("6-b-a.png"),
		SelfieBefore: imageFile("6-before.jpg"),
		SelfieAfter:  imageFile("6-after-1.jpg"),
		ProfileImage: imageFile("6_profile.jpg"),
	},
	{
		ID:           7,
		Title:        "콧구멍이 비대칭인 경우",
		Cause:        "날개연골 재배치가 정확하지 않거나 비중격 지지력이 약할 경우 콧구멍 비대칭이 생길 수 있습니다.",
		Method:       "비중격과 코끝 연골을 보강하고, 콧날개 연골을 재정렬해 대칭을 맞춥니다.",
		Thumb:        "7.jpg",
		BeforeAfter:  imageFile("7-b-a.png"),
		ProfileImage: imageFile("7_profile.jpg"),
	},
	{
		ID:           8,
		Title:        "복코 재교정이 필요한 경우",
		Cause:        "연골을 충분히 모아주지 않았거나, 피하지방을 제대로 제거하지 않은 경우 복코가 지속될 수 있습니다.",
		Method:       "연골을 다시 모아주고 불필요한 피하지방을 정리해 보다 선명한 코끝 라인을 완성합니다.",
		Thumb:        "8.jpg",
		BeforeAfter:  imageFile("8-b-a.png"),
		SelfieBefore: imageFile("8-before.jpg"),
		SelfieAfter:  imageFile("8-after-1.jpg"),
		ProfileImage: imageFile("8_profile.jpg"),
	},
	{
		ID:           9,
		Title:        "매부리가 남은 경우",
		Cause:        "매부리 절제량이 부족하거나, 수술 후 뼈가 다시 자라면서 돌출이 남아 있을 수 있습니다.",
		Method:       "매부리를 정밀하게 제거한 뒤, 콧대를 보형물이나 자가조직으로 다듬어 라인을 자연스럽게 연결합니다.",
		Thumb:        "9.jpg",
		BeforeAfter:  imageFile("9-b-a.png"),
		SelfieBefore: imageFile("9-before.jpg"),
		SelfieAfter:  imageFile("9-after-1.jpg"),
		ProfileImage: imageFile("9_profile.jpg"),
	},
}

// RevisionTypes returns a copy of the catalog ordered by id.
func RevisionTypes() []RevisionType {
	return append([]RevisionType(nil), revisionTypes...)
}

// RevisionTypeByID looks up a catalog entry. id 0 is not a catalog entry.
func RevisionTypeByID(id int) (RevisionType, bool) {
	for _, rt := range revisionTypes {
		if rt.ID == id {
			return rt, true
		}
	}
	return RevisionType{}, false
}

// RevisionTypeTitle resolves the title stored with a lead: the catalog title for
// 1..9, the "none" label for 0, and "" for anything else.
func RevisionTypeTitle(id int) string {
	if id == RevisionTypeNone {
		return RevisionTypeNoneTitle
	}
	if rt, ok := RevisionTypeByID(id); ok {
		return rt.Title
	}
	return ""
}
