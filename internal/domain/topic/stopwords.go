package topic

var stopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "app", "apps",
	"are", "aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "can't", "cannot", "could", "couldn't", "did", "didn't", "do", "does", "doesn't", "doing",
	"don't", "down", "during", "each", "even", "ever", "every", "few", "for", "from", "further", "get", "gets",
	"getting", "got", "had", "hadn't", "has", "hasn't", "have", "haven't", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "i'm", "i've", "if", "in", "into", "is", "isn't", "it",
	"it's", "its", "itself", "just", "like", "make", "makes", "many", "me", "more", "most", "much", "must", "my",
	"myself", "need", "never", "no", "nor", "not", "now", "of", "off", "on", "once", "one", "only", "or", "other",
	"our", "ours", "ourselves", "out", "over", "own", "please", "really", "same", "she", "should", "shouldn't",
	"since", "so", "some", "still", "such", "than", "that", "that's", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through", "time", "to", "too", "under",
	"until", "up", "use", "used", "using", "very", "want", "was", "wasn't", "way", "we", "well", "were",
	"weren't", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with", "won't", "would",
	"wouldn't", "you", "you're", "your", "yours", "yourself", "yourselves",
}
